package telegram

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
)

// Operations provides common Telegram bot operations
type Operations struct {
	bot *api.BotAPI
}

// NewOperations creates a new Operations instance
func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

// GetChatAdministrators fetches the full administrator list of a chat.
func (o *Operations) GetChatAdministrators(ctx context.Context, chatID int64) ([]api.ChatMember, error) {
	members, err := o.bot.GetChatAdministrators(api.ChatAdministratorsConfig{
		ChatConfig: api.ChatConfig{
			ChatID: chatID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat administrators: %w", err)
	}
	return members, nil
}

// GetChatMember fetches a single membership record.
func (o *Operations) GetChatMember(ctx context.Context, chatID, userID int64) (*api.ChatMember, error) {
	member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat member: %w", err)
	}
	return &member, nil
}

// Reply sends a plain text reply to a message.
func (o *Operations) Reply(ctx context.Context, msg *api.Message, text string) error {
	reply := api.NewMessage(msg.Chat.ID, text)
	reply.ReplyParameters.AllowSendingWithoutReply = true
	reply.ReplyParameters.MessageID = msg.MessageID
	reply.ReplyParameters.ChatID = msg.Chat.ID
	if msg.Chat.IsForum {
		reply.MessageThreadID = msg.MessageThreadID
	}
	if _, err := o.bot.Send(reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// DeleteMessage deletes a message from a chat
func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID))
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// BanUser bans a user from a chat
func (o *Operations) BanUser(ctx context.Context, userID int64, chatID int64) error {
	config := api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		RevokeMessages: true,
	}
	_, err := o.bot.Request(config)
	if err != nil {
		if strings.Contains(err.Error(), "not enough rights") {
			return fmt.Errorf("not enough rights to ban user")
		}
		return fmt.Errorf("failed to ban user: %w", err)
	}
	return nil
}

// UnbanUser lifts a ban from a user
func (o *Operations) UnbanUser(ctx context.Context, userID int64, chatID int64) error {
	config := api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}

// PromoteUser grants a user the default moderator rights
func (o *Operations) PromoteUser(ctx context.Context, userID int64, chatID int64) error {
	config := api.PromoteChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		CanDeleteMessages:  true,
		CanRestrictMembers: true,
		CanPinMessages:     true,
		CanInviteUsers:     true,
		CanManageTopics:    true,
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	return nil
}

// DemoteUser strips all administrator rights from a user
func (o *Operations) DemoteUser(ctx context.Context, userID int64, chatID int64) error {
	config := api.PromoteChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to demote user: %w", err)
	}
	return nil
}

// PinMessage pins a message in a chat
func (o *Operations) PinMessage(ctx context.Context, chatID int64, messageID int, silent bool) error {
	config := api.PinChatMessageConfig{
		BaseChatMessage: api.BaseChatMessage{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			MessageID: messageID,
		},
		DisableNotification: silent,
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}
	return nil
}

// UnpinMessage unpins a message in a chat
func (o *Operations) UnpinMessage(ctx context.Context, chatID int64, messageID int) error {
	config := api.UnpinChatMessageConfig{
		BaseChatMessage: api.BaseChatMessage{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			MessageID: messageID,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to unpin message: %w", err)
	}
	return nil
}

// RestrictUser mutes a user in a chat
func (o *Operations) RestrictUser(ctx context.Context, userID int64, chatID int64) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		Permissions: &api.ChatPermissions{
			CanSendMessages:       false,
			CanSendOtherMessages:  false,
			CanAddWebPagePreviews: false,
		},
	}
	_, err := o.bot.Request(config)
	if err != nil {
		return fmt.Errorf("failed to restrict user: %w", err)
	}
	return nil
}
