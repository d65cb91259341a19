package handlers

import (
	"context"
	"sync/atomic"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/zerotwobot/zeroguard/internal/config"
	"github.com/zerotwobot/zeroguard/internal/db"
	"github.com/zerotwobot/zeroguard/internal/event"
	"github.com/zerotwobot/zeroguard/internal/infrastructure/telegram"
	"github.com/zerotwobot/zeroguard/internal/policy/membership"
	"github.com/zerotwobot/zeroguard/internal/policy/permissions"
	"github.com/zerotwobot/zeroguard/internal/roles"
)

const testBotID = 555

type fakeService struct {
	bot      *api.BotAPI
	settings *db.Settings
}

func (f *fakeService) GetBot() *api.BotAPI {
	return f.bot
}

func (f *fakeService) GetDB() db.Client {
	return nil
}

func (f *fakeService) GetSettings(_ context.Context, chatID int64) (*db.Settings, error) {
	if f.settings != nil {
		return f.settings, nil
	}
	return db.DefaultSettings(chatID), nil
}

func (f *fakeService) SetSettings(_ context.Context, settings *db.Settings) error {
	f.settings = settings
	return nil
}

type fakeUpstream struct {
	admins map[int64][]api.ChatMember
	calls  atomic.Int64
	fail   bool
}

func (f *fakeUpstream) GetChatAdministrators(_ context.Context, chatID int64) ([]api.ChatMember, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("telegram is down")
	}
	return f.admins[chatID], nil
}

func (f *fakeUpstream) GetChatMember(_ context.Context, chatID, userID int64) (*api.ChatMember, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("telegram is down")
	}
	return &api.ChatMember{Status: "member", User: &api.User{ID: userID}}, nil
}

func newTestGuard(up membership.Upstream, r config.Roles, settings *db.Settings) *Guard {
	s := &fakeService{
		bot:      &api.BotAPI{Self: api.User{ID: testBotID}},
		settings: settings,
	}
	registry := roles.NewRegistry(r)
	cache := membership.NewSnapshotCache(membership.SnapshotCapacity, membership.SnapshotTTL)
	resolver := membership.NewResolver(up, cache, registry)
	engine := permissions.NewEngine(registry, resolver)
	return NewGuard(s, engine, telegram.NewOperations(s.bot))
}

// groupUpdate builds an update without a message, so denial replies are
// no-ops and no network traffic is attempted.
func groupUpdate() (*api.Update, *api.Chat, *api.User) {
	return &api.Update{}, &api.Chat{ID: -100, Type: "supergroup"}, &api.User{ID: 10}
}

func countingAction(counter *atomic.Int64) Action {
	return func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
		counter.Add(1)
		return nil
	}
}

func TestDevPlus(t *testing.T) {
	t.Parallel()

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{DevUsers: []int64{10}}, nil)

	var calls atomic.Int64
	action := g.DevPlus(countingAction(&calls))

	u, chat, user := groupUpdate()
	if err := action(context.Background(), u, chat, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("dev user must reach the action")
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("non-dev user must be stopped")
	}
}

func TestSudoPlusIncludesDevs(t *testing.T) {
	t.Parallel()

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{DevUsers: []int64{10}, SudoUsers: []int64{20}}, nil)

	var calls atomic.Int64
	action := g.SudoPlus(countingAction(&calls))
	u, chat, _ := groupUpdate()

	for _, id := range []int64{10, 20} {
		if err := action(context.Background(), u, chat, &api.User{ID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("dev and sudo must both pass, got %d calls", calls.Load())
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("plain user must be stopped")
	}
}

func TestSupportPlusDeniesQuietly(t *testing.T) {
	t.Parallel()

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{SupportUsers: []int64{30}}, nil)

	var calls atomic.Int64
	action := g.SupportPlus(countingAction(&calls))
	u, chat, _ := groupUpdate()

	if err := action(context.Background(), u, chat, &api.User{ID: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("support user must reach the action")
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 31}); err != nil {
		t.Fatalf("denial must be silent, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("outsider must be stopped")
	}
}

func TestWhitelistPlus(t *testing.T) {
	t.Parallel()

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{WolfUsers: []int64{40}}, nil)

	var calls atomic.Int64
	action := g.WhitelistPlus("ZeroTwoSupport", countingAction(&calls))
	u, chat, _ := groupUpdate()

	if err := action(context.Background(), u, chat, &api.User{ID: 40}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("whitelisted user must reach the action")
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("outsider must be stopped")
	}
}

func TestUserAdminAgainstSnapshot(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{
		admins: map[int64][]api.ChatMember{
			-100: {{Status: "administrator", User: &api.User{ID: 10}}},
		},
	}
	g := newTestGuard(up, config.Roles{}, nil)

	var calls atomic.Int64
	action := g.UserAdminNoReply(countingAction(&calls))
	u, chat, user := groupUpdate()

	if err := action(context.Background(), u, chat, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("listed admin must reach the action")
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("non-admin must be stopped")
	}
	if got := up.calls.Load(); got != 1 {
		t.Fatalf("second check must come from the snapshot, got %d fetches", got)
	}
}

func TestUserNotAdmin(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{
		admins: map[int64][]api.ChatMember{
			-100: {{Status: "administrator", User: &api.User{ID: 10}}},
		},
	}
	g := newTestGuard(up, config.Roles{}, nil)

	var calls atomic.Int64
	action := g.UserNotAdmin(countingAction(&calls))
	u, chat, admin := groupUpdate()

	if err := action(context.Background(), u, chat, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("admins must be skipped")
	}

	if err := action(context.Background(), u, chat, &api.User{ID: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("plain member must reach the action")
	}
}

func TestBotAdmin(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{
		admins: map[int64][]api.ChatMember{
			-100: {{Status: "administrator", User: &api.User{ID: testBotID}}},
		},
	}
	g := newTestGuard(up, config.Roles{}, nil)

	var calls atomic.Int64
	action := g.BotAdmin(countingAction(&calls))
	u, chat, user := groupUpdate()

	if err := action(context.Background(), u, chat, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("action must run while the bot is admin")
	}
}

func TestRequireSilentDelete(t *testing.T) {
	// Consumes the global cleanup queue, so no t.Parallel here.
	for drained := event.Bus.DQ(); drained != nil; drained = event.Bus.DQ() {
	}

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{},
		&db.Settings{ID: -100, Enabled: true, DeleteRestricted: true})

	var calls atomic.Int64
	action := g.Require(permissions.Requirement{OnlySudo: true}, countingAction(&calls))

	u := &api.Update{Message: &api.Message{
		MessageID: 42,
		Text:      "/promote",
		Chat:      api.Chat{ID: -100, Type: "supergroup"},
	}}
	chat := &api.Chat{ID: -100, Type: "supergroup"}
	if err := action(context.Background(), u, chat, &api.User{ID: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("restricted command must not run for a plain user")
	}

	queued := event.Bus.DQ()
	if queued == nil {
		t.Fatalf("bare restricted command must be queued for deletion")
	}
	dm, ok := queued.(*event.DeleteMessage)
	if !ok {
		t.Fatalf("unexpected event type %q", queued.Type())
	}
	if dm.ChatID != -100 || dm.MessageID != 42 {
		t.Fatalf("wrong cleanup target: chat=%d message=%d", dm.ChatID, dm.MessageID)
	}
}

func TestSilentDeleteSkipsCommandsWithArguments(t *testing.T) {
	for drained := event.Bus.DQ(); drained != nil; drained = event.Bus.DQ() {
	}

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{},
		&db.Settings{ID: -100, Enabled: true, DeleteRestricted: true})

	u := &api.Update{Message: &api.Message{
		MessageID: 43,
		Text:      "/promote @someone",
		Chat:      api.Chat{ID: -100, Type: "supergroup"},
	}}
	chat := &api.Chat{ID: -100, Type: "supergroup"}
	if g.silentlyDeleted(context.Background(), u, chat, &api.User{ID: 30}) {
		t.Fatalf("a command with arguments must not be silently deleted")
	}
	if queued := event.Bus.DQ(); queued != nil {
		t.Fatalf("nothing must be queued for a command with arguments")
	}
}

func TestSilentDeleteDisabledByDefault(t *testing.T) {
	for drained := event.Bus.DQ(); drained != nil; drained = event.Bus.DQ() {
	}

	g := newTestGuard(&fakeUpstream{fail: true}, config.Roles{}, nil)

	u := &api.Update{Message: &api.Message{
		MessageID: 44,
		Text:      "/promote",
		Chat:      api.Chat{ID: -100, Type: "supergroup"},
	}}
	chat := &api.Chat{ID: -100, Type: "supergroup"}
	if g.silentlyDeleted(context.Background(), u, chat, &api.User{ID: 30}) {
		t.Fatalf("silent deletion must stay off until enabled")
	}
	if queued := event.Bus.DQ(); queued != nil {
		t.Fatalf("nothing must be queued while the policy is off")
	}
}
