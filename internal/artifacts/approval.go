package artifacts

import "fmt"

// renderApprovalSlip writes the approval slip PDF: request fields, the
// approver signature box and the gate-check QR a guard scans at the gate.
func (g *Generator) renderApprovalSlip(snap Snapshot, gateQRPath string, res *StageResult) error {
	r := snap.Request
	d := newDoc()

	d.title("Material In/Out Approval Slip")
	d.line(30, fmt.Sprintf("Site: %s    Request: %s", g.siteName, r.ID))
	d.line(37, fmt.Sprintf("Direction: %s    Status: %s    Risk: %s", r.Direction, r.Status, r.Risk))
	d.line(44, fmt.Sprintf("Company: %s    Material: %s", r.Company, r.Material))
	d.line(51, fmt.Sprintf("Vehicle: %s    Driver: %s", r.Vehicle, r.DriverContact))
	d.line(58, fmt.Sprintf("Gate/Schedule: %s / %s %s", r.Gate, r.WorkDate, r.WorkTime))
	if r.Note != "" {
		note := r.Note
		if len(note) > 90 {
			note = note[:90]
		}
		d.line(65, "Note: "+note)
	}

	d.line(76, "Requested: "+formatActorLine(r.CreatedBy, &r.CreatedAt))
	d.line(83, "Approved:  "+formatActorLine(r.ApprovedBy, r.ApprovedAt))

	// Approval chain as snapshotted at submission.
	y := 93.0
	d.boldLine(y, "Approval steps")
	y += 7
	for _, step := range snap.Steps {
		d.line(y, fmt.Sprintf("%d. %s: %s %s", step.Seq, step.Role, step.Status,
			formatActorLine(step.ActorName, step.SignedAt)))
		y += 6
	}

	reason := d.imageBox("Approver signature", r.SignaturePath, 18, y+8, 60, 22)
	g.warn(res, KindApproval, "signature", reason)

	reason = d.imageBox("Gate-check QR (request id)", gateQRPath, 130, y+8, 55, 55)
	g.warn(res, KindApproval, "gate_qr", reason)

	d.footer(g.now())

	out := g.layout.Path(r.ID, KindApproval)
	if err := d.save(out); err != nil {
		return err
	}
	res.Files[KindApproval] = out
	return nil
}
