package models

// Role identifies what an actor is allowed to do. Roles are self-declared at
// login; the site passphrase is the actual credential, matching how a small
// site crew shares one secret.
type Role string

const (
	RoleRequester  Role = "requester"
	RoleSupervisor Role = "supervisor"
	RoleSafety     Role = "safety"
	RoleExecutor   Role = "executor"
	RoleGuard      Role = "guard"
)

// Session is the explicit actor context threaded through every workflow call.
// It is constructed once at login and never read from ambient state.
type Session struct {
	// ActorName is the display name recorded on transitions, e.g. "홍길동/공무팀장".
	ActorName string `json:"actor_name"`

	// ActorRole gates which transitions the actor may perform.
	ActorRole Role `json:"actor_role"`

	// Elevated is set when the elevated passphrase was presented at login.
	// It bypasses per-step role checks but not state checks.
	Elevated bool `json:"elevated"`
}

// Anonymous returns true for a zero-value or name-less session.
func (s Session) Anonymous() bool {
	return s.ActorName == ""
}
