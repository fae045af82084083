package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration against the requirements of cfg.Env
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Server.Port <= 0 {
		errs = append(errs, ValidationError{"server.port", "must be positive"})
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{"database.driver", fmt.Sprintf("unsupported driver %q", cfg.Database.Driver)})
	}

	switch cfg.AI.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, ValidationError{"ai.provider", fmt.Sprintf("unsupported provider %q", cfg.AI.Provider)})
	}

	if cfg.Quota.Limit <= 0 {
		errs = append(errs, ValidationError{"quota.limit", "must be positive"})
	}
	if cfg.Quota.Window <= 0 {
		errs = append(errs, ValidationError{"quota.window", "must be positive"})
	}

	if cfg.Env.IsStrict() {
		// images and speech always go through OpenAI, so its key is required
		// even when chat completions use Gemini
		if cfg.AI.OpenAIAPIKey == "" {
			errs = append(errs, ValidationError{"ai.openai_api_key", "required"})
		}
		if cfg.AI.Provider == "gemini" && cfg.AI.GeminiAPIKey == "" {
			errs = append(errs, ValidationError{"ai.gemini_api_key", "required when provider is gemini"})
		}
		if cfg.Auth.JWTSecret == "" {
			errs = append(errs, ValidationError{"auth.jwt_secret", "required"})
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" && cfg.Database.URL == "" {
			errs = append(errs, ValidationError{"database.password", "required"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
