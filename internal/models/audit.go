package models

import "time"

// AuditAction categorizes entries in the append-only audit log.
type AuditAction string

const (
	AuditRequestSubmitted AuditAction = "request.submitted"
	AuditStepSigned       AuditAction = "approval.step_signed"
	AuditRequestApproved  AuditAction = "request.approved"
	AuditRequestRejected  AuditAction = "request.rejected"
	AuditRequestExecuted  AuditAction = "request.executed"
)

// AuditEntry is one append-only record of a state-changing action.
// Entries are never mutated or deleted; they exist for the ledger view and
// are not consulted by workflow decisions.
type AuditEntry struct {
	ID        string      `json:"id"`
	RequestID string      `json:"request_id"`
	Action    AuditAction `json:"action"`
	Actor     string      `json:"actor"`
	ActorRole Role        `json:"actor_role"`
	Detail    string      `json:"detail,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
