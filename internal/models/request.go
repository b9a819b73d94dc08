// Package models defines the core domain types for Gatepass.
package models

import "time"

// Direction indicates whether material moves into or out of the site.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Valid reports whether the direction is one of the known values.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// RiskLevel is the coarse risk classification assigned at submission.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskMid  RiskLevel = "MID"
	RiskHigh RiskLevel = "HIGH"
)

// RequestStatus represents the lifecycle state of a material movement request.
type RequestStatus string

const (
	// StatusPending is the initial state after submission.
	StatusPending RequestStatus = "PENDING"

	// StatusApproved means every required approval step has signed off.
	StatusApproved RequestStatus = "APPROVED"

	// StatusRejected is terminal; a rejection at any step cancels the request.
	StatusRejected RequestStatus = "REJECTED"

	// StatusExecuting marks an execution attempt in flight. Re-entry from
	// this state is allowed so an interrupted execution can be retried.
	StatusExecuting RequestStatus = "EXECUTING"

	// StatusExecuted is terminal; photos and checklist have been recorded.
	StatusExecuted RequestStatus = "EXECUTED"
)

// Terminal reports whether no further transition is allowed from the status.
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusExecuted
}

// Request is one material in/out movement record and its full
// approval/execution lifecycle.
type Request struct {
	// ID is the unique request identifier, e.g. REQ_20260206_070000_1a2b3c.
	// It is the sole lookup key for gate verification.
	ID string `json:"id"`

	Direction     Direction `json:"direction"`
	Company       string    `json:"company"`
	Material      string    `json:"material"`
	Vehicle       string    `json:"vehicle"`
	DriverContact string    `json:"driver_contact"`
	Gate          string    `json:"gate"`
	WorkDate      string    `json:"work_date"` // YYYY-MM-DD
	WorkTime      string    `json:"work_time"` // HH:MM
	Note          string    `json:"note,omitempty"`
	Risk          RiskLevel `json:"risk"`

	Status RequestStatus `json:"status"`

	// Version is bumped on every row update; stale writers are rejected.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`

	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	ExecutedBy string     `json:"executed_by,omitempty"`

	// SignaturePath points at the approver's signature image, if captured.
	SignaturePath string `json:"signature_path,omitempty"`

	// ArtifactPaths records generated documents by kind so they can be
	// re-served without regeneration.
	ArtifactPaths map[string]string `json:"artifact_paths,omitempty"`
}

// RequestDraft carries the user-supplied fields of a new request.
type RequestDraft struct {
	Direction     Direction `json:"direction"`
	Company       string    `json:"company"`
	Material      string    `json:"material"`
	Vehicle       string    `json:"vehicle"`
	DriverContact string    `json:"driver_contact"`
	Gate          string    `json:"gate"`
	WorkDate      string    `json:"work_date"`
	WorkTime      string    `json:"work_time"`
	Note          string    `json:"note"`
	Risk          RiskLevel `json:"risk"`
}

// Validate checks the required fields of a draft. The returned error is a
// *ValidationErrors listing every missing field, or nil.
func (d *RequestDraft) Validate() error {
	var errs ValidationErrors
	if !d.Direction.Valid() {
		errs.AddMessage("direction", "must be IN or OUT")
	}
	if d.Company == "" {
		errs.AddMessage("company", "is required")
	}
	if d.Material == "" {
		errs.AddMessage("material", "is required")
	}
	if d.Vehicle == "" {
		errs.AddMessage("vehicle", "is required")
	}
	if d.DriverContact == "" {
		errs.AddMessage("driver_contact", "is required")
	}
	return errs.Err()
}

// StepStatus is the state of a single approval step.
type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"

	// StepCancelled marks steps abandoned because the request was rejected.
	StepCancelled StepStatus = "CANCELLED"
)

// ApprovalStep is one entry of the ordered approver chain snapshotted onto a
// request at creation. The chain is never recomputed from configuration after
// that, so a later config change cannot alter an in-flight request.
type ApprovalStep struct {
	ID        string     `json:"id"`
	RequestID string     `json:"request_id"`
	Seq       int        `json:"seq"`
	Role      Role       `json:"role"`
	Status    StepStatus `json:"status"`
	ActorName string     `json:"actor_name,omitempty"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
}
