package db

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

func DefaultSettings(chatID int64) *Settings {
	return &Settings{
		ID:       chatID,
		Enabled:  true,
		Language: "en",
	}
}

// Client defines the database interface
type Client interface {
	Close() error
	GetSettings(ctx context.Context, chatID int64) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error
}
