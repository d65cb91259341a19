package roles_test

import (
	"testing"

	"github.com/zerotwobot/zeroguard/internal/config"
	"github.com/zerotwobot/zeroguard/internal/roles"
)

func newTestRegistry() *roles.Registry {
	return roles.NewRegistry(config.Roles{
		DevUsers:     []int64{100},
		SudoUsers:    []int64{200},
		SupportUsers: []int64{300},
		TigerUsers:   []int64{400},
		WolfUsers:    []int64{500},
	})
}

func TestTierNesting(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	if !r.IsDev(100) {
		t.Fatalf("dev user not recognized")
	}
	for _, id := range []int64{100, 200} {
		if !r.IsSudoPlus(id) {
			t.Fatalf("user %d should be sudo-plus", id)
		}
	}
	for _, id := range []int64{100, 200, 300} {
		if !r.IsSupportPlus(id) {
			t.Fatalf("user %d should be support-plus", id)
		}
	}
	for _, id := range []int64{100, 200, 300, 400, 500} {
		if !r.IsWhitelistPlus(id) {
			t.Fatalf("user %d should be whitelist-plus", id)
		}
	}
}

func TestTierBoundaries(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	if r.IsDev(200) {
		t.Fatalf("sudo user must not be dev")
	}
	if r.IsSudoPlus(300) {
		t.Fatalf("support user must not be sudo-plus")
	}
	if r.IsSupportPlus(400) {
		t.Fatalf("tiger user must not be support-plus")
	}
	if r.IsWhitelistPlus(999) {
		t.Fatalf("unknown user must not be whitelist-plus")
	}
}

func TestTiersIsTotal(t *testing.T) {
	t.Parallel()

	r := roles.NewRegistry(config.Roles{})
	if got := r.Tiers(42); len(got) != 0 {
		t.Fatalf("expected no tiers for unknown user, got %v", got)
	}

	full := newTestRegistry()
	tiers := full.Tiers(100)
	if len(tiers) != 4 || tiers[0] != roles.TierDev {
		t.Fatalf("dev should hold every tier, got %v", tiers)
	}
}
