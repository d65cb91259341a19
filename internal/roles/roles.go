package roles

import (
	"github.com/zerotwobot/zeroguard/internal/config"
)

// Tier is a named privilege level backed by a static user ID set.
type Tier string

const (
	TierDev       Tier = "dev"
	TierSudo      Tier = "sudo"
	TierSupport   Tier = "support"
	TierWhitelist Tier = "whitelist"
)

// Registry holds the static privileged user sets. It is built once at
// startup and never mutated afterwards; all lookups are pure and total.
//
// The tiers nest: dev ⊆ sudo-plus ⊆ support-plus ⊆ whitelist-plus.
type Registry struct {
	devs      map[int64]struct{}
	sudoers   map[int64]struct{}
	supporter map[int64]struct{}
	tigers    map[int64]struct{}
	wolves    map[int64]struct{}
}

func NewRegistry(r config.Roles) *Registry {
	return &Registry{
		devs:      toSet(r.DevUsers),
		sudoers:   toSet(r.SudoUsers),
		supporter: toSet(r.SupportUsers),
		tigers:    toSet(r.TigerUsers),
		wolves:    toSet(r.WolfUsers),
	}
}

func (r *Registry) IsDev(userID int64) bool {
	_, ok := r.devs[userID]
	return ok
}

// IsSudoPlus reports sudo tier membership, devs included.
func (r *Registry) IsSudoPlus(userID int64) bool {
	if r.IsDev(userID) {
		return true
	}
	_, ok := r.sudoers[userID]
	return ok
}

// IsSupportPlus reports support tier membership, sudo-plus included.
func (r *Registry) IsSupportPlus(userID int64) bool {
	if r.IsSudoPlus(userID) {
		return true
	}
	_, ok := r.supporter[userID]
	return ok
}

// IsWhitelistPlus reports whitelist tier membership, support-plus included.
func (r *Registry) IsWhitelistPlus(userID int64) bool {
	if r.IsSupportPlus(userID) {
		return true
	}
	if _, ok := r.tigers[userID]; ok {
		return true
	}
	_, ok := r.wolves[userID]
	return ok
}

// IsTiger and IsWolf expose the two whitelist sets individually; ban
// protection covers them while the support tier stays unprotected.
func (r *Registry) IsTiger(userID int64) bool {
	_, ok := r.tigers[userID]
	return ok
}

func (r *Registry) IsWolf(userID int64) bool {
	_, ok := r.wolves[userID]
	return ok
}

// Tiers returns every tier the user belongs to, most privileged first.
func (r *Registry) Tiers(userID int64) []Tier {
	tiers := make([]Tier, 0, 4)
	if r.IsDev(userID) {
		tiers = append(tiers, TierDev)
	}
	if r.IsSudoPlus(userID) {
		tiers = append(tiers, TierSudo)
	}
	if r.IsSupportPlus(userID) {
		tiers = append(tiers, TierSupport)
	}
	if r.IsWhitelistPlus(userID) {
		tiers = append(tiers, TierWhitelist)
	}
	return tiers
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
