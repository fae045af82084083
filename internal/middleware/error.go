package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// wizardRuleErrors are session rule violations reported as 400
var wizardRuleErrors = []error{
	wizard.ErrEmptyIngredient,
	wizard.ErrDuplicateIngredient,
	wizard.ErrTooManyIngredients,
	wizard.ErrIngredientNotFound,
	wizard.ErrIngredientsLocked,
	wizard.ErrInvalidPreference,
	wizard.ErrPreferencesLocked,
	wizard.ErrWrongStep,
	wizard.ErrNotEnoughIngredients,
	wizard.ErrNoCandidates,
	wizard.ErrUnknownCandidate,
	wizard.ErrNoSelection,
}

// ToAppError maps domain errors to their HTTP form. Unknown errors become
// a generic 500.
func ToAppError(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, wizard.ErrGenerationUnparseable):
		return types.NewAppError(types.ErrCodeInvalidJSON, wizard.ErrGenerationUnparseable.Error(), http.StatusInternalServerError, err)
	case errors.Is(err, wizard.ErrSessionNotFound):
		return types.NewAppError(types.ErrCodeNotFound, err.Error(), http.StatusNotFound, err)
	case errors.Is(err, wizard.ErrSessionBusy), errors.Is(err, wizard.ErrPending):
		return types.NewAppError(types.ErrCodeConflict, err.Error(), http.StatusConflict, err)
	case errors.Is(err, wizard.ErrLimitReached):
		return types.NewAppError(types.ErrCodeLimitReached, err.Error(), http.StatusTooManyRequests, err)
	case errors.Is(err, ai.ErrQuotaExceeded):
		return types.NewAppError(types.ErrCodeTooManyRequests, ai.ErrQuotaExceeded.Error(), http.StatusTooManyRequests, err)
	case errors.Is(err, ai.ErrUpstream):
		return types.NewAppError(types.ErrCodeUpstream, ai.ErrUpstream.Error(), http.StatusBadGateway, err)
	}

	for _, rule := range wizardRuleErrors {
		if errors.Is(err, rule) {
			return types.NewAppError(types.ErrCodeInvalidRequest, rule.Error(), http.StatusBadRequest, err)
		}
	}
	return types.AsAppError(err)
}

// ErrorHandler renders the last error a handler attached with c.Error when
// the handler wrote nothing itself
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		appErr := ToAppError(err)

		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err),
		}
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		c.JSON(appErr.Status, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}
}

// Recovery turns a panic into a 500 JSON response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  types.ErrCodeInternal,
				})
			}
		}()

		c.Next()
	}
}
