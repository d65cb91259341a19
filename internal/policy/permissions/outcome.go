package permissions

// Reason explains a denial. Reasons are consumed immediately by the guard
// layer and never persisted.
type Reason string

const (
	ReasonNotAdmin       Reason = "not-admin"
	ReasonBotCapability  Reason = "insufficient-bot-capability"
	ReasonUserCapability Reason = "insufficient-user-capability"
	ReasonOwnerOnly      Reason = "owner-only"
	ReasonDevOnly        Reason = "dev-only"
	ReasonSudoOnly       Reason = "sudo-only"
	ReasonNoAccess       Reason = "no-access"
)

type Outcome struct {
	Allowed    bool
	Reason     Reason
	Capability Capability
}

func Allow() Outcome {
	return Outcome{Allowed: true}
}

func Deny(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

func DenyCapability(reason Reason, capability Capability) Outcome {
	return Outcome{Reason: reason, Capability: capability}
}
