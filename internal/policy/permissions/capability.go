package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// Capability names a fine-grained administrator right.
type Capability string

const (
	CapDeleteMessages  Capability = "can_delete_messages"
	CapPinMessages     Capability = "can_pin_messages"
	CapPromoteMembers  Capability = "can_promote_members"
	CapRestrictMembers Capability = "can_restrict_members"
	CapManageTopics    Capability = "can_manage_topics"
)

// Describe returns the human phrase used in denial replies.
func (c Capability) Describe() string {
	switch c {
	case CapDeleteMessages:
		return "delete messages"
	case CapPinMessages:
		return "pin messages"
	case CapPromoteMembers:
		return "promote members"
	case CapRestrictMembers:
		return "restrict members"
	case CapManageTopics:
		return "manage topics"
	}
	return string(c)
}

// Bundle is the explicit capability set of an administrator. A nil Bundle
// means the member is not an administrator at all, which is a distinct case
// from an administrator lacking a flag.
type Bundle struct {
	CanDeleteMessages  bool
	CanPinMessages     bool
	CanPromoteMembers  bool
	CanRestrictMembers bool
	CanManageTopics    bool
}

func (b *Bundle) Has(c Capability) bool {
	if b == nil {
		return false
	}
	switch c {
	case CapDeleteMessages:
		return b.CanDeleteMessages
	case CapPinMessages:
		return b.CanPinMessages
	case CapPromoteMembers:
		return b.CanPromoteMembers
	case CapRestrictMembers:
		return b.CanRestrictMembers
	case CapManageTopics:
		return b.CanManageTopics
	}
	return false
}

// BundleOf extracts the capability set from a member record. The chat owner
// implicitly holds every capability.
func BundleOf(member *api.ChatMember) *Bundle {
	if member == nil {
		return nil
	}
	if member.IsCreator() {
		return &Bundle{
			CanDeleteMessages:  true,
			CanPinMessages:     true,
			CanPromoteMembers:  true,
			CanRestrictMembers: true,
			CanManageTopics:    true,
		}
	}
	if !member.IsAdministrator() {
		return nil
	}
	return &Bundle{
		CanDeleteMessages:  member.CanDeleteMessages,
		CanPinMessages:     member.CanPinMessages,
		CanPromoteMembers:  member.CanPromoteMembers,
		CanRestrictMembers: member.CanRestrictMembers,
		CanManageTopics:    member.CanManageTopics,
	}
}
