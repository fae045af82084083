package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/config"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
)

// ObjectPutter is the part of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaService re-hosts generated images and stores narration audio
type MediaService struct {
	bucket *config.S3Config
	putter ObjectPutter
	client *resty.Client
}

// NewMediaService creates a MediaService. With a nil bucket images keep their
// upstream link and audio is returned inline as a data URL.
func NewMediaService(bucket *config.S3Config) *MediaService {
	var putter ObjectPutter
	if bucket != nil && bucket.Client != nil {
		putter = bucket.Client
	}
	return newMediaService(bucket, putter, resty.New().SetTimeout(60*time.Second))
}

func newMediaService(bucket *config.S3Config, putter ObjectPutter, client *resty.Client) *MediaService {
	return &MediaService{bucket: bucket, putter: putter, client: client}
}

// RehostImage copies an upstream image into the bucket. Any failure falls
// back to the original link.
func (m *MediaService) RehostImage(ctx context.Context, imageURL string) string {
	if m.putter == nil || imageURL == "" {
		return imageURL
	}

	resp, err := m.client.R().SetContext(ctx).Get(imageURL)
	if err != nil {
		logger.Warn("failed to download image, keeping original link", zap.String("url", imageURL), zap.Error(err))
		return imageURL
	}
	if resp.StatusCode() != http.StatusOK {
		logger.Warn("failed to download image, keeping original link",
			zap.String("url", imageURL),
			zap.Int("status", resp.StatusCode()),
		)
		return imageURL
	}

	key := fmt.Sprintf("recipe-images/%s.png", uuid.New().String())
	link, err := m.upload(ctx, key, "image/png", resp.Body())
	if err != nil {
		logger.Warn("failed to upload image, keeping original link", zap.String("url", imageURL), zap.Error(err))
		return imageURL
	}
	return link
}

// StoreAudio uploads narration audio and returns its public link
func (m *MediaService) StoreAudio(ctx context.Context, audio []byte) (string, error) {
	if m.putter == nil {
		return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio), nil
	}
	key := fmt.Sprintf("recipe-audio/%s.mp3", uuid.New().String())
	return m.upload(ctx, key, "audio/mpeg", audio)
}

func (m *MediaService) upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	input := m.bucket.PutObjectInput(key, contentType)
	input.Body = bytes.NewReader(data)
	if _, err := m.putter.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	link := m.bucket.PublicURL(key)
	logger.Info("uploaded object to S3", zap.String("key", key), zap.String("url", link))
	return link, nil
}
