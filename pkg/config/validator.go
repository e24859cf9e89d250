package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/xhad/pdfchat/pkg/logging"
)

const MinPollInterval = 100 * time.Millisecond

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate service config
	if c.Service.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "service.base_url",
			Message: "service base URL is required",
		})
	} else if u, err := url.Parse(c.Service.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "service.base_url",
			Message: "base URL must be an absolute http(s) URL",
		})
	}

	if c.Service.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "service.timeout",
			Message: "timeout must be positive",
		})
	}

	// Validate poll config
	if c.Poll.Interval < MinPollInterval {
		errors = append(errors, ValidationError{
			Field:   "poll.interval",
			Message: fmt.Sprintf("interval must be at least %s", MinPollInterval),
		})
	}

	// Validate log config
	if !logging.ValidLevel(c.Log.Level) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	if c.Log.Format != "" && c.Log.Format != logging.FormatLogfmt && c.Log.Format != logging.FormatJSON {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown log format: %s", c.Log.Format),
		})
	}

	return errors
}
