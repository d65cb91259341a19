package permissions

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/zerotwobot/zeroguard/internal/observability"
	"github.com/zerotwobot/zeroguard/internal/policy/membership"
	"github.com/zerotwobot/zeroguard/internal/roles"
)

// Scope selects whose capabilities a requirement is checked against.
type Scope int

const (
	ScopeUser Scope = iota
	ScopeBot
	ScopeBoth
)

// Requirement describes what a guarded action needs. A zero Requirement is
// the plain admin check: bot must be admin, user must be admin or sudo-plus.
type Requirement struct {
	Capability Capability
	Scope      Scope
	OnlyOwner  bool
	OnlySudo   bool
	OnlyDev    bool
}

// Subject is the actor of a single invocation. Known member records, when
// the platform already delivered them with the update, are trusted as-is
// and save an upstream fetch.
type Subject struct {
	Chat           *api.Chat
	User           *api.User
	BotID          int64
	KnownMember    *api.ChatMember
	KnownBotMember *api.ChatMember
}

// Engine combines tier membership, cached admin snapshots and capability
// bundles into a single allow/deny decision.
type Engine struct {
	roles   *roles.Registry
	members *membership.Resolver
	entry   *log.Entry
}

func NewEngine(registry *roles.Registry, resolver *membership.Resolver) *Engine {
	return &Engine{
		roles:   registry,
		members: resolver,
		entry:   log.WithField("context", "permissions"),
	}
}

func (e *Engine) Resolver() *membership.Resolver {
	return e.members
}

func (e *Engine) Roles() *roles.Registry {
	return e.roles
}

// Check evaluates the requirement against the subject. Rules apply in
// order and every rule is terminal; an upstream failure on any path denies
// (fail closed, never assume admin).
func (e *Engine) Check(ctx context.Context, req Requirement, sub Subject) Outcome {
	return e.record(sub, e.check(ctx, req, sub))
}

func (e *Engine) check(ctx context.Context, req Requirement, sub Subject) Outcome {
	if sub.Chat == nil || sub.User == nil {
		return Deny(ReasonNoAccess)
	}

	// No group context, nothing to enforce.
	if sub.Chat.IsPrivate() {
		return Allow()
	}

	if req.OnlyOwner {
		if e.roles.IsDev(sub.User.ID) {
			return Allow()
		}
		member := sub.KnownMember
		if member == nil {
			fetched, err := e.members.Member(ctx, sub.Chat.ID, sub.User.ID)
			if err != nil {
				e.entry.WithError(err).Debug("cant resolve member for owner check")
				return Deny(ReasonOwnerOnly)
			}
			member = fetched
		}
		if member.IsCreator() {
			return Allow()
		}
		return Deny(ReasonOwnerOnly)
	}

	if req.OnlyDev {
		if e.roles.IsDev(sub.User.ID) {
			return Allow()
		}
		return Deny(ReasonDevOnly)
	}

	if req.OnlySudo {
		if e.roles.IsSudoPlus(sub.User.ID) {
			return Allow()
		}
		return Deny(ReasonSudoOnly)
	}

	if req.Capability != "" {
		return e.checkCapability(ctx, req, sub)
	}

	return e.checkPlainAdmin(ctx, sub)
}

func (e *Engine) checkCapability(ctx context.Context, req Requirement, sub Subject) Outcome {
	if req.Scope == ScopeBot || req.Scope == ScopeBoth {
		bundle := BundleOf(e.botMember(ctx, sub))
		if !bundle.Has(req.Capability) {
			return DenyCapability(ReasonBotCapability, req.Capability)
		}
		if req.Scope == ScopeBot {
			return Allow()
		}
	}

	// User side. The owner always passes; on the both-scope path devs pass
	// as well; sudo-plus bypasses the explicit flag.
	member := e.userMember(ctx, sub)
	if member != nil && member.IsCreator() {
		return Allow()
	}
	if req.Scope == ScopeBoth && e.roles.IsDev(sub.User.ID) {
		return Allow()
	}
	if e.roles.IsSudoPlus(sub.User.ID) {
		return Allow()
	}
	if BundleOf(member).Has(req.Capability) {
		return Allow()
	}
	return DenyCapability(ReasonUserCapability, req.Capability)
}

func (e *Engine) checkPlainAdmin(ctx context.Context, sub Subject) Outcome {
	botAdmin, err := e.members.IsBotAdmin(ctx, sub.Chat, sub.BotID, sub.KnownBotMember)
	if err != nil {
		e.entry.WithError(err).Debug("cant verify bot admin status")
		return Deny(ReasonNotAdmin)
	}
	if !botAdmin {
		return Deny(ReasonNotAdmin)
	}

	userAdmin, err := e.members.IsAdmin(ctx, sub.Chat, sub.User.ID, sub.KnownMember)
	if err != nil {
		e.entry.WithError(err).Debug("cant verify user admin status")
		return Deny(ReasonNoAccess)
	}
	if !userAdmin {
		return Deny(ReasonNoAccess)
	}
	return Allow()
}

// botMember and userMember resolve a full member record, preferring the
// records carried by the subject. A fetch failure yields nil, which the
// capability rules treat as "not an administrator".
func (e *Engine) botMember(ctx context.Context, sub Subject) *api.ChatMember {
	if sub.KnownBotMember != nil {
		return sub.KnownBotMember
	}
	member, err := e.members.Member(ctx, sub.Chat.ID, sub.BotID)
	if err != nil {
		e.entry.WithError(err).Debug("cant resolve bot member")
		return nil
	}
	return member
}

func (e *Engine) userMember(ctx context.Context, sub Subject) *api.ChatMember {
	if sub.KnownMember != nil {
		return sub.KnownMember
	}
	member, err := e.members.Member(ctx, sub.Chat.ID, sub.User.ID)
	if err != nil {
		e.entry.WithError(err).Debug("cant resolve user member")
		return nil
	}
	return member
}

func (e *Engine) record(sub Subject, outcome Outcome) Outcome {
	var chatID, userID int64
	if sub.Chat != nil {
		chatID = sub.Chat.ID
	}
	if sub.User != nil {
		userID = sub.User.ID
	}
	observability.AuditDecision(outcome.Allowed, string(outcome.Reason), chatID, userID)
	return outcome
}
