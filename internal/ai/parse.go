package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// FailureReason classifies why model output could not be used
type FailureReason string

const (
	ReasonEmpty       FailureReason = "empty"
	ReasonInvalidJSON FailureReason = "invalid_json"
	ReasonWrongShape  FailureReason = "wrong_shape"
)

// ParseFailure carries the reason and the raw text that failed to parse
type ParseFailure struct {
	Reason FailureReason
	Raw    string
	Err    error
}

func (f *ParseFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return string(f.Reason)
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}

// ParseResult holds either a parsed value or the reason parsing failed
type ParseResult[T any] struct {
	Value   T
	Failure *ParseFailure
}

// OK reports whether parsing succeeded
func (r ParseResult[T]) OK() bool {
	return r.Failure == nil
}

func failed[T any](reason FailureReason, raw string, err error) ParseResult[T] {
	return ParseResult[T]{Failure: &ParseFailure{Reason: reason, Raw: raw, Err: err}}
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// StripFences removes markdown code fences around model output. When the
// output holds prose around a fenced block, the block content is returned.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseJSON strips fences and decodes raw into T
func ParseJSON[T any](raw string) ParseResult[T] {
	s := StripFences(raw)
	if s == "" {
		return failed[T](ReasonEmpty, raw, nil)
	}
	if !json.Valid([]byte(s)) {
		return failed[T](ReasonInvalidJSON, raw, errors.New("not valid JSON"))
	}

	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return failed[T](ReasonWrongShape, raw, err)
	}
	return ParseResult[T]{Value: v}
}

// ParseRecipes decodes a recipe generation reply. The bare JSON array is
// canonical; {"recipes":[...]} and {"recipes":{"recipes":[...]}} are
// normalized to it. Every other shape is rejected.
func ParseRecipes(raw string) ParseResult[[]types.CandidateRecipe] {
	res := ParseJSON[json.RawMessage](raw)
	if !res.OK() {
		return ParseResult[[]types.CandidateRecipe]{Failure: res.Failure}
	}

	payload := res.Value
	for depth := 0; depth < 2 && startsWith(payload, '{'); depth++ {
		var envelope struct {
			Recipes json.RawMessage `json:"recipes"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Recipes) == 0 {
			return failed[[]types.CandidateRecipe](ReasonWrongShape, raw, errors.New(`object without "recipes"`))
		}
		payload = envelope.Recipes
	}
	if !startsWith(payload, '[') {
		return failed[[]types.CandidateRecipe](ReasonWrongShape, raw, errors.New("expected an array of recipes"))
	}

	var recipes []types.CandidateRecipe
	if err := json.Unmarshal(payload, &recipes); err != nil {
		return failed[[]types.CandidateRecipe](ReasonWrongShape, raw, err)
	}
	if len(recipes) == 0 {
		return failed[[]types.CandidateRecipe](ReasonWrongShape, raw, errors.New("no recipes"))
	}
	for i, r := range recipes {
		if strings.TrimSpace(r.Name) == "" {
			return failed[[]types.CandidateRecipe](ReasonWrongShape, raw, fmt.Errorf("recipe %d has no name", i))
		}
	}
	return ParseResult[[]types.CandidateRecipe]{Value: recipes}
}

// ParseTags decodes a JSON array of strings. null, a non-array or any
// non-string element is the wrong shape.
func ParseTags(raw string) ParseResult[[]string] {
	res := ParseJSON[json.RawMessage](raw)
	if !res.OK() {
		return ParseResult[[]string]{Failure: res.Failure}
	}
	if !startsWith(res.Value, '[') {
		return failed[[]string](ReasonWrongShape, raw, errors.New("expected an array of tags"))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(res.Value, &elems); err != nil {
		return failed[[]string](ReasonWrongShape, raw, err)
	}
	tags := make([]string, 0, len(elems))
	for i, e := range elems {
		if !startsWith(e, '"') {
			return failed[[]string](ReasonWrongShape, raw, fmt.Errorf("tag %d is not a string", i))
		}
		var tag string
		if err := json.Unmarshal(e, &tag); err != nil {
			return failed[[]string](ReasonWrongShape, raw, err)
		}
		tags = append(tags, tag)
	}
	return ParseResult[[]string]{Value: tags}
}

func startsWith(b []byte, c byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == c
}
