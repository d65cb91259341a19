package permissions_test

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/zerotwobot/zeroguard/internal/policy/permissions"
)

func TestBundleOfCreatorHoldsEverything(t *testing.T) {
	t.Parallel()

	bundle := permissions.BundleOf(&api.ChatMember{Status: "creator", User: &api.User{ID: 1}})
	for _, c := range []permissions.Capability{
		permissions.CapDeleteMessages,
		permissions.CapPinMessages,
		permissions.CapPromoteMembers,
		permissions.CapRestrictMembers,
		permissions.CapManageTopics,
	} {
		if !bundle.Has(c) {
			t.Fatalf("creator must hold %s", c)
		}
	}
}

func TestBundleOfReadsEachFlagIndependently(t *testing.T) {
	t.Parallel()

	member := &api.ChatMember{
		Status:          "administrator",
		User:            &api.User{ID: 1},
		CanManageTopics: true,
	}
	bundle := permissions.BundleOf(member)
	if !bundle.Has(permissions.CapManageTopics) {
		t.Fatalf("manage-topics flag must be honored")
	}
	// Topic management must not be conflated with any other right.
	if bundle.Has(permissions.CapRestrictMembers) {
		t.Fatalf("unrelated capability must stay false")
	}
}

func TestBundleOfNonAdmin(t *testing.T) {
	t.Parallel()

	if permissions.BundleOf(&api.ChatMember{Status: "member", User: &api.User{ID: 1}}) != nil {
		t.Fatalf("a plain member has no bundle")
	}
	if permissions.BundleOf(nil) != nil {
		t.Fatalf("nil member has no bundle")
	}
	var bundle *permissions.Bundle
	if bundle.Has(permissions.CapPinMessages) {
		t.Fatalf("nil bundle must answer false")
	}
}
