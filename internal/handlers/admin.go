package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/zerotwobot/zeroguard/internal/bot"
	"github.com/zerotwobot/zeroguard/internal/config"
	apperrors "github.com/zerotwobot/zeroguard/internal/errors"
	"github.com/zerotwobot/zeroguard/internal/handlers/base"
	"github.com/zerotwobot/zeroguard/internal/infrastructure/telegram"
	"github.com/zerotwobot/zeroguard/internal/policy/permissions"
)

// Admin handles the moderation command surface. Every command is wrapped
// with the guard that matches its required permission level.
type Admin struct {
	*base.BaseHandler
	guard    *Guard
	ops      *telegram.Operations
	commands map[string]Action
}

func NewAdmin(s bot.Service, guard *Guard, ops *telegram.Operations) *Admin {
	a := &Admin{
		BaseHandler: base.NewBaseHandler(s, "admin"),
		guard:       guard,
		ops:         ops,
	}
	both := func(capability permissions.Capability) permissions.Requirement {
		return permissions.Requirement{Capability: capability, Scope: permissions.ScopeBoth}
	}
	a.commands = map[string]Action{
		"adminlist":  guard.UserAdmin(a.adminListCommand),
		"admincache": guard.UserAdmin(a.adminCacheCommand),
		"pin":        guard.Require(both(permissions.CapPinMessages), a.pinCommand),
		"unpin":      guard.Require(both(permissions.CapPinMessages), a.unpinCommand),
		"promote":    guard.Require(both(permissions.CapPromoteMembers), a.promoteCommand),
		"demote":     guard.Require(both(permissions.CapPromoteMembers), a.demoteCommand),
		"ban":        guard.Require(both(permissions.CapRestrictMembers), a.banCommand),
		"unban":      guard.Require(both(permissions.CapRestrictMembers), a.unbanCommand),
		"mute":       guard.Require(both(permissions.CapRestrictMembers), a.muteCommand),
		"del":        guard.UserAdmin(guard.BotCan(permissions.CapDeleteMessages, a.delCommand)),
		"delcmds":    guard.Require(permissions.Requirement{OnlyOwner: true}, a.delCmdsCommand),
		"perms":      guard.WhitelistPlus(config.Get().SupportChat, a.permsCommand),
	}
	return a
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if err := a.ValidateUpdate(u, chat, user); err != nil {
		return true, nil
	}
	msg := u.Message
	if msg == nil || !msg.IsCommand() {
		return true, nil
	}
	settings := a.GetSettings(ctx, chat)
	if !settings.Enabled {
		return true, nil
	}
	action, ok := a.commands[msg.Command()]
	if !ok {
		return true, nil
	}
	if err := action(ctx, u, chat, user); err != nil {
		return false, errors.WithMessage(err, "admin command")
	}
	return false, nil
}

func (a *Admin) adminListCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	admins, ok := a.guard.engine.Resolver().Cache().Admins(chat.ID)
	if !ok {
		fetched, err := a.guard.engine.Resolver().Refresh(ctx, chat.ID)
		if err != nil {
			return a.ops.Reply(ctx, u.Message, "Can't fetch the admin list right now.")
		}
		admins = fetched
	}
	lines := make([]string, 0, len(admins)+1)
	lines = append(lines, fmt.Sprintf("Admins in %s:", chat.Title))
	for _, id := range admins {
		lines = append(lines, fmt.Sprintf("• %d", id))
	}
	return a.ops.Reply(ctx, u.Message, strings.Join(lines, "\n"))
}

func (a *Admin) adminCacheCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	a.guard.engine.Resolver().Cache().Invalidate(chat.ID)
	if _, err := a.guard.engine.Resolver().Refresh(ctx, chat.ID); err != nil {
		return a.ops.Reply(ctx, u.Message, "Can't refresh the admin cache right now.")
	}
	return a.ops.Reply(ctx, u.Message, "Admin cache refreshed.")
}

func (a *Admin) pinCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	msg := u.Message
	if msg.ReplyToMessage == nil {
		return a.ops.Reply(ctx, msg, "Reply to a message to pin it.")
	}
	silent := strings.EqualFold(strings.TrimSpace(msg.CommandArguments()), "silent")
	if err := a.ops.PinMessage(ctx, chat.ID, msg.ReplyToMessage.MessageID, silent); err != nil {
		return errors.WithMessage(err, "pin")
	}
	return nil
}

func (a *Admin) unpinCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	msg := u.Message
	if msg.ReplyToMessage == nil {
		return a.ops.Reply(ctx, msg, "Reply to a pinned message to unpin it.")
	}
	if err := a.ops.UnpinMessage(ctx, chat.ID, msg.ReplyToMessage.MessageID); err != nil {
		return errors.WithMessage(err, "unpin")
	}
	return nil
}

func (a *Admin) promoteCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	target, err := a.targetUser(u.Message)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Reply to a user or pass a user ID to promote.")
	}
	if err := a.ops.PromoteUser(ctx, target, chat.ID); err != nil {
		return errors.WithMessage(err, "promote")
	}
	return a.ops.Reply(ctx, u.Message, "Promoted.")
}

func (a *Admin) demoteCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	target, err := a.targetUser(u.Message)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Reply to a user or pass a user ID to demote.")
	}
	if err := a.ops.DemoteUser(ctx, target, chat.ID); err != nil {
		return errors.WithMessage(err, "demote")
	}
	return a.ops.Reply(ctx, u.Message, "Demoted.")
}

func (a *Admin) banCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	target, err := a.targetUser(u.Message)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Reply to a user or pass a user ID to ban.")
	}
	protected, err := a.guard.engine.Resolver().IsBanProtected(ctx, chat, target, nil)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Can't verify the user right now, not banning.")
	}
	if protected {
		return a.ops.Reply(ctx, u.Message, "I'm not banning this user, they are protected.")
	}
	if err := a.ops.BanUser(ctx, target, chat.ID); err != nil {
		return errors.WithMessage(err, "ban")
	}
	return a.ops.Reply(ctx, u.Message, "Banned.")
}

func (a *Admin) unbanCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	target, err := a.targetUser(u.Message)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Reply to a user or pass a user ID to unban.")
	}
	if err := a.ops.UnbanUser(ctx, target, chat.ID); err != nil {
		return errors.WithMessage(err, "unban")
	}
	return a.ops.Reply(ctx, u.Message, "Unbanned.")
}

func (a *Admin) muteCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	target, err := a.targetUser(u.Message)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Reply to a user or pass a user ID to mute.")
	}
	protected, err := a.guard.engine.Resolver().IsBanProtected(ctx, chat, target, nil)
	if err != nil {
		return a.ops.Reply(ctx, u.Message, "Can't verify the user right now, not muting.")
	}
	if protected {
		return a.ops.Reply(ctx, u.Message, "I'm not muting this user, they are protected.")
	}
	if err := a.ops.RestrictUser(ctx, target, chat.ID); err != nil {
		return errors.WithMessage(err, "mute")
	}
	return a.ops.Reply(ctx, u.Message, "Muted.")
}

func (a *Admin) delCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	msg := u.Message
	if msg.ReplyToMessage == nil {
		return a.ops.Reply(ctx, msg, "Reply to the message you want to delete.")
	}
	if err := a.ops.DeleteMessage(ctx, chat.ID, msg.ReplyToMessage.MessageID); err != nil {
		return errors.WithMessage(err, "delete target")
	}
	// Cleaning up the command itself is best effort.
	_ = a.ops.DeleteMessage(ctx, chat.ID, msg.MessageID)
	return nil
}

func (a *Admin) delCmdsCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	settings := a.GetSettings(ctx, chat)
	switch strings.ToLower(strings.TrimSpace(u.Message.CommandArguments())) {
	case "on", "yes", "true":
		settings.DeleteRestricted = true
	case "off", "no", "false":
		settings.DeleteRestricted = false
	default:
		state := "off"
		if settings.DeleteRestricted {
			state = "on"
		}
		return a.ops.Reply(ctx, u.Message, fmt.Sprintf("Deleting restricted commands is %s here.", state))
	}
	if err := a.GetService().SetSettings(ctx, settings); err != nil {
		return errors.WithMessage(err, "set settings")
	}
	return a.ops.Reply(ctx, u.Message, "Got it.")
}

func (a *Admin) permsCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	tiers := a.guard.engine.Roles().Tiers(user.ID)
	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, string(tier))
	}
	tierLine := "none"
	if len(names) > 0 {
		tierLine = strings.Join(names, ", ")
	}
	adminLine := "no"
	if isAdmin, err := a.guard.engine.Resolver().IsAdmin(ctx, chat, user.ID, nil); err == nil && isAdmin {
		adminLine = "yes"
	}
	return a.ops.Reply(ctx, u.Message, fmt.Sprintf("Tiers: %s\nChat admin: %s", tierLine, adminLine))
}

// targetUser resolves the target of a moderation command: the replied-to
// author, or a numeric ID in the first argument.
func (a *Admin) targetUser(msg *api.Message) (int64, error) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, nil
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return 0, errors.WithMessage(apperrors.ErrInvalidInput, "no target")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(apperrors.ErrInvalidInput, "parse target user id: %v", err)
	}
	return id, nil
}
