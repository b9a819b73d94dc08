package artifacts

import (
	"fmt"
	"strings"
)

// Stage names the lifecycle point a share message announces.
type Stage string

const (
	StageSubmitted Stage = "submitted"
	StageApproved  Stage = "approved"
	StageRejected  Stage = "rejected"
	StageExecuted  Stage = "executed"
)

var stageHeadline = map[Stage]string{
	StageSubmitted: "[Request] Material movement submitted",
	StageApproved:  "[Approved] Material movement request",
	StageRejected:  "[Rejected] Material movement request",
	StageExecuted:  "[Completed] Material movement executed",
}

// ShareText builds the plain-text block pasted into the site chat room when
// a request changes stage. It lists the key fields and the generated file
// paths; the zip is uploaded alongside it by hand.
func ShareText(stage Stage, snap Snapshot, res *StageResult) string {
	r := snap.Request

	var b strings.Builder
	head, ok := stageHeadline[stage]
	if !ok {
		head = "Material movement request"
	}
	b.WriteString(head + "\n")
	fmt.Fprintf(&b, "Request: %s\n", r.ID)
	fmt.Fprintf(&b, "Direction: %s / Risk: %s\n", r.Direction, r.Risk)
	fmt.Fprintf(&b, "Company: %s\n", r.Company)
	fmt.Fprintf(&b, "Material: %s\n", r.Material)
	fmt.Fprintf(&b, "Vehicle: %s (%s)\n", r.Vehicle, r.DriverContact)
	fmt.Fprintf(&b, "Schedule: %s %s / Gate: %s\n", r.WorkDate, r.WorkTime, r.Gate)

	switch stage {
	case StageApproved:
		fmt.Fprintf(&b, "Approved by: %s\n", formatActorLine(r.ApprovedBy, r.ApprovedAt))
	case StageExecuted:
		fmt.Fprintf(&b, "Executed by: %s\n", formatActorLine(r.ExecutedBy, r.ExecutedAt))
	}

	if res != nil && len(res.Files) > 0 {
		b.WriteString("Files:\n")
		for _, kind := range []Kind{KindApproval, KindPermit, KindCheckCard, KindExecRecord, KindPacket, KindGateQR, KindShareZip} {
			if path, ok := res.Files[kind]; ok {
				fmt.Fprintf(&b, "  - %s: %s\n", kind, path)
			}
		}
	}
	if res != nil && len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "Note: %d image(s) could not be embedded; see the warnings in the app.\n", len(res.Warnings))
	}
	return b.String()
}
