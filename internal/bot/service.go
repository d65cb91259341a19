package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/zerotwobot/zeroguard/internal/db"
)

type service struct {
	bot   *api.BotAPI
	db    db.Client
	entry *log.Entry
}

func NewService(bot *api.BotAPI, dbClient db.Client, entry *log.Entry) *service {
	return &service{
		bot:   bot,
		db:    dbClient,
		entry: entry,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

// GetSettings returns the chat's settings, creating and persisting the
// defaults on first access.
func (s *service) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	settings, err := s.db.GetSettings(ctx, chatID)
	if err != nil {
		return nil, errors.WithMessage(err, "get settings")
	}
	if settings == nil {
		settings = db.DefaultSettings(chatID)
		if err := s.db.SetSettings(ctx, settings); err != nil {
			return nil, errors.WithMessage(err, "set default settings")
		}
	}
	return settings, nil
}

func (s *service) SetSettings(ctx context.Context, settings *db.Settings) error {
	return s.db.SetSettings(ctx, settings)
}
