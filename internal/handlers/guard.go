package handlers

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zerotwobot/zeroguard/internal/bot"
	"github.com/zerotwobot/zeroguard/internal/config"
	"github.com/zerotwobot/zeroguard/internal/event"
	"github.com/zerotwobot/zeroguard/internal/infrastructure/telegram"
	"github.com/zerotwobot/zeroguard/internal/policy/permissions"
)

// Action is a command handler body. Guards wrap an Action and run it only
// when the decision engine allows the invocation.
type Action func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error

// Guard builds pre-check middleware around actions. On denial it either
// replies with the reason or, for tier-restricted bare commands under the
// delete-restricted policy, silently removes the invoking message.
type Guard struct {
	s      bot.Service
	engine *permissions.Engine
	ops    *telegram.Operations
	entry  *log.Entry
}

func NewGuard(s bot.Service, engine *permissions.Engine, ops *telegram.Operations) *Guard {
	return &Guard{
		s:      s,
		engine: engine,
		ops:    ops,
		entry:  log.WithField("context", "guard"),
	}
}

// Require wraps next with an engine check and replies on denial.
func (g *Guard) Require(req permissions.Requirement, next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		outcome := g.engine.Check(ctx, req, g.subject(u, chat, user))
		if outcome.Allowed {
			return next(ctx, u, chat, user)
		}
		g.logDenial(chat, user, outcome)

		restricted := req.OnlyDev || req.OnlySudo
		if restricted && g.silentlyDeleted(ctx, u, chat, user) {
			return nil
		}
		g.reply(ctx, u.Message, denialText(outcome))
		return nil
	}
}

// DevPlus restricts the action to the developer tier.
func (g *Guard) DevPlus(next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user != nil && g.engine.Roles().IsDev(user.ID) {
			return next(ctx, u, chat, user)
		}
		if user == nil {
			return nil
		}
		if g.silentlyDeleted(ctx, u, chat, user) {
			return nil
		}
		g.reply(ctx, u.Message, denialText(permissions.Deny(permissions.ReasonDevOnly)))
		return nil
	}
}

// SudoPlus restricts the action to the sudo tier and above.
func (g *Guard) SudoPlus(next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user != nil && g.engine.Roles().IsSudoPlus(user.ID) {
			return next(ctx, u, chat, user)
		}
		if user == nil {
			return nil
		}
		if g.silentlyDeleted(ctx, u, chat, user) {
			return nil
		}
		g.reply(ctx, u.Message, denialText(permissions.Deny(permissions.ReasonSudoOnly)))
		return nil
	}
}

// SupportPlus restricts the action to the support tier and above. Denials
// are never replied to, only the silent-delete policy applies.
func (g *Guard) SupportPlus(next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user != nil && g.engine.Roles().IsSupportPlus(user.ID) {
			return next(ctx, u, chat, user)
		}
		if user == nil {
			return nil
		}
		g.silentlyDeleted(ctx, u, chat, user)
		return nil
	}
}

// WhitelistPlus restricts the action to any whitelisted tier.
func (g *Guard) WhitelistPlus(supportChat string, next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user != nil && g.engine.Roles().IsWhitelistPlus(user.ID) {
			return next(ctx, u, chat, user)
		}
		g.reply(ctx, u.Message, fmt.Sprintf("You don't have access to use this.\nVisit @%s", supportChat))
		return nil
	}
}

// UserAdmin requires the invoking user to be a chat admin (tiers included).
func (g *Guard) UserAdmin(next Action) Action {
	return g.userAdmin(next, true)
}

// UserAdminNoReply is UserAdmin with denial replies suppressed.
func (g *Guard) UserAdminNoReply(next Action) Action {
	return g.userAdmin(next, false)
}

func (g *Guard) userAdmin(next Action, replyOnDeny bool) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user == nil {
			return nil
		}
		isAdmin, err := g.engine.Resolver().IsAdmin(ctx, chat, user.ID, knownMember(u))
		if err != nil {
			g.entry.WithError(err).Warn("cant verify admin status")
		}
		if isAdmin {
			return next(ctx, u, chat, user)
		}
		if g.silentlyDeleted(ctx, u, chat, user) {
			return nil
		}
		if replyOnDeny {
			g.reply(ctx, u.Message, denialText(permissions.Deny(permissions.ReasonSudoOnly)))
		}
		return nil
	}
}

// UserNotAdmin runs the action only for non-admin users, silently skipping
// everyone else.
func (g *Guard) UserNotAdmin(next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		if user == nil {
			return nil
		}
		isAdmin, err := g.engine.Resolver().IsAdmin(ctx, chat, user.ID, knownMember(u))
		if err != nil {
			g.entry.WithError(err).Warn("cant verify admin status")
			return nil
		}
		if !isAdmin {
			return next(ctx, u, chat, user)
		}
		return nil
	}
}

// BotAdmin requires the bot itself to be an administrator of the chat.
func (g *Guard) BotAdmin(next Action) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		isAdmin, err := g.engine.Resolver().IsBotAdmin(ctx, chat, g.s.GetBot().Self.ID, nil)
		if err != nil {
			g.entry.WithError(err).Warn("cant verify bot admin status")
		}
		if isAdmin {
			return next(ctx, u, chat, user)
		}
		g.reply(ctx, u.Message, "I'm not admin here.")
		return nil
	}
}

// BotCan requires a capability on the bot's own admin record.
func (g *Guard) BotCan(capability permissions.Capability, next Action) Action {
	req := permissions.Requirement{Capability: capability, Scope: permissions.ScopeBot}
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		outcome := g.engine.Check(ctx, req, g.subject(u, chat, user))
		if outcome.Allowed {
			return next(ctx, u, chat, user)
		}
		g.logDenial(chat, user, outcome)
		g.reply(ctx, u.Message, botCapabilityText(capability))
		return nil
	}
}

func (g *Guard) subject(u *api.Update, chat *api.Chat, user *api.User) permissions.Subject {
	sub := permissions.Subject{
		Chat:        chat,
		BotID:       g.s.GetBot().Self.ID,
		KnownMember: knownMember(u),
	}
	if user != nil {
		sub.User = user
	}
	return sub
}

// silentlyDeleted applies the delete-restricted-commands policy: a bare
// command (no arguments) is removed instead of answered. Reports whether
// the denial was handled.
func (g *Guard) silentlyDeleted(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) bool {
	msg := u.Message
	if msg == nil || chat == nil {
		return false
	}
	if strings.Contains(msg.Text, " ") {
		return false
	}
	deleteRestricted := config.Get().DeleteRestrictedCommands
	if settings, err := g.s.GetSettings(ctx, chat.ID); err == nil && settings != nil {
		deleteRestricted = deleteRestricted || settings.DeleteRestricted
	}
	if !deleteRestricted {
		return false
	}
	event.Bus.NQ(event.NewDeleteMessage(chat.ID, msg.MessageID))
	return true
}

func (g *Guard) reply(ctx context.Context, msg *api.Message, text string) {
	if msg == nil {
		return
	}
	if err := g.ops.Reply(ctx, msg, text); err != nil {
		g.entry.WithError(err).Warn("cant send denial reply")
	}
}

func (g *Guard) logDenial(chat *api.Chat, user *api.User, outcome permissions.Outcome) {
	entry := g.entry.WithField("correlation_id", uuid.New())
	if chat != nil {
		entry = entry.WithField("chat_id", chat.ID)
	}
	if user != nil {
		entry = entry.
			WithField("user_id", user.ID).
			WithField("user_name", bot.GetUN(user)).
			WithField("tiers", g.engine.Roles().Tiers(user.ID))
	}
	entry.WithField("reason", string(outcome.Reason)).Debug("denied")
}

// knownMember extracts a member record already delivered with the update,
// if any, so the engine can skip the upstream fetch.
func knownMember(u *api.Update) *api.ChatMember {
	if u == nil || u.ChatMember == nil {
		return nil
	}
	return &u.ChatMember.NewChatMember
}

func denialText(outcome permissions.Outcome) string {
	switch outcome.Reason {
	case permissions.ReasonNotAdmin:
		return "I'm not admin here."
	case permissions.ReasonNoAccess:
		return "You are not admin here."
	case permissions.ReasonOwnerOnly:
		return "Only chat owner can perform this action."
	case permissions.ReasonDevOnly:
		return "This is a developer restricted command. You do not have permissions to run this."
	case permissions.ReasonSudoOnly:
		return "Who the hell are you to say me what to do?"
	case permissions.ReasonBotCapability:
		return fmt.Sprintf("I don't have rights to %s to do this action.", outcome.Capability.Describe())
	case permissions.ReasonUserCapability:
		return fmt.Sprintf("You don't have rights to %s to do this action.", outcome.Capability.Describe())
	}
	return "You don't have access to use this."
}

func botCapabilityText(capability permissions.Capability) string {
	switch capability {
	case permissions.CapDeleteMessages:
		return "I can't delete messages here!\nMake sure I'm admin and can delete other user's messages."
	case permissions.CapPinMessages:
		return "I can't pin messages here!\nMake sure I'm admin and can pin messages."
	case permissions.CapPromoteMembers:
		return "I can't promote/demote people here!\nMake sure I'm admin and can appoint new admins."
	case permissions.CapRestrictMembers:
		return "I can't restrict people here!\nMake sure I'm admin and can restrict users."
	case permissions.CapManageTopics:
		return "I can't manage topics here!\nMake sure I'm admin and can manage topics."
	}
	return fmt.Sprintf("I don't have rights to %s to do this action.", capability.Describe())
}
