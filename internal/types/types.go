package types

import (
	"context"
	"io"
	"time"

	"github.com/xhad/pdfchat/internal/models"
)

// Core interfaces
type DocumentService interface {
	Upload(ctx context.Context, name string, r io.Reader) (*models.UploadResponse, error)
	Status(ctx context.Context, sessionID string) (models.Status, error)
	Chat(ctx context.Context, sessionID, query string) (string, error)
}

type Document interface {
	GetName() string
	GetPath() string
	GetSize() int64
	Reader() (io.ReadCloser, error)
}

type Config struct {
	Service ServiceConfig
	Poll    PollConfig
	UI      UIConfig
	Log     LogConfig
}

type ServiceConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type PollConfig struct {
	Interval time.Duration
}

type UIConfig struct {
	Color   bool
	Spinner bool
}

type LogConfig struct {
	Level  string
	Format string
}
