package membership

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/zerotwobot/zeroguard/internal/errors"
	"github.com/zerotwobot/zeroguard/internal/observability"
	"github.com/zerotwobot/zeroguard/internal/roles"
)

// Telegram routes some traffic through pseudo-users that always act with
// admin rights: service messages and anonymous group admins.
const (
	TelegramServiceUserID = 777000
	AnonymousAdminUserID  = 1087968824
)

// Upstream is the slice of the platform client the resolver consumes.
type Upstream interface {
	GetChatAdministrators(ctx context.Context, chatID int64) ([]api.ChatMember, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (*api.ChatMember, error)
}

// Resolver answers admin-status questions, preferring caller-supplied
// member records, then tier shortcuts, then the snapshot cache, and only
// then the upstream API.
type Resolver struct {
	up    Upstream
	cache *SnapshotCache
	roles *roles.Registry
}

func NewResolver(up Upstream, cache *SnapshotCache, registry *roles.Registry) *Resolver {
	return &Resolver{
		up:    up,
		cache: cache,
		roles: registry,
	}
}

func (r *Resolver) Cache() *SnapshotCache {
	return r.cache
}

// IsAdmin reports whether the user is an administrator or the owner of the
// chat. A supplied member record is trusted as-is and skips the cache.
func (r *Resolver) IsAdmin(ctx context.Context, chat *api.Chat, userID int64, known *api.ChatMember) (bool, error) {
	if known != nil {
		return isAdminStatus(known), nil
	}
	if chat.IsPrivate() || r.roles.IsSudoPlus(userID) || isAdminPseudoUser(userID) {
		return true, nil
	}
	if isAdmin, ok := r.cache.Lookup(chat.ID, userID); ok {
		return isAdmin, nil
	}
	admins, err := r.Refresh(ctx, chat.ID)
	if err != nil {
		return false, err
	}
	for _, id := range admins {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// IsBotAdmin is IsAdmin for the bot's own membership. The bot holds no
// tiers, so only the private-chat bypass applies.
func (r *Resolver) IsBotAdmin(ctx context.Context, chat *api.Chat, botID int64, known *api.ChatMember) (bool, error) {
	if chat.IsPrivate() {
		return true, nil
	}
	if known != nil {
		return isAdminStatus(known), nil
	}
	if isAdmin, ok := r.cache.Lookup(chat.ID, botID); ok {
		return isAdmin, nil
	}
	admins, err := r.Refresh(ctx, chat.ID)
	if err != nil {
		return false, err
	}
	for _, id := range admins {
		if id == botID {
			return true, nil
		}
	}
	return false, nil
}

// IsBanProtected reports whether the user may not be banned or restricted.
// Unlike IsAdmin it never consults the snapshot cache: ban protection is
// checked rarely and staleness is a worse trade than an extra fetch.
func (r *Resolver) IsBanProtected(ctx context.Context, chat *api.Chat, userID int64, known *api.ChatMember) (bool, error) {
	if chat.IsPrivate() ||
		r.roles.IsSudoPlus(userID) ||
		r.roles.IsWolf(userID) ||
		r.roles.IsTiger(userID) ||
		isAdminPseudoUser(userID) {
		return true, nil
	}
	if known == nil {
		member, err := r.Member(ctx, chat.ID, userID)
		if err != nil {
			return false, err
		}
		known = member
	}
	return isAdminStatus(known), nil
}

// Member fetches a single membership record. The result is owned by the
// caller and never cached.
func (r *Resolver) Member(ctx context.Context, chatID, userID int64) (*api.ChatMember, error) {
	member, err := r.up.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return nil, errors.WithMessagef(apperrors.ErrUpstreamUnavailable, "get chat member: %v", err)
	}
	return member, nil
}

// Refresh fetches the chat's administrator list, overwrites the cached
// snapshot and resets its expiry. The fetch runs outside the cache lock.
func (r *Resolver) Refresh(ctx context.Context, chatID int64) ([]int64, error) {
	done := observability.StartUpstreamFetch()
	members, err := r.up.GetChatAdministrators(ctx, chatID)
	if err != nil {
		done("error")
		log.WithError(err).WithField("chat_id", chatID).Warn("cant fetch chat administrators")
		return nil, errors.WithMessagef(apperrors.ErrUpstreamUnavailable, "get chat administrators: %v", err)
	}
	done("ok")

	admins := make([]int64, 0, len(members))
	for _, member := range members {
		if member.User == nil {
			continue
		}
		admins = append(admins, member.User.ID)
	}
	r.cache.Store(chatID, admins)
	return admins, nil
}

func isAdminStatus(member *api.ChatMember) bool {
	return member.IsAdministrator() || member.IsCreator()
}

func isAdminPseudoUser(userID int64) bool {
	return userID == TelegramServiceUserID || userID == AnonymousAdminUserID
}
