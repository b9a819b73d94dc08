package artifacts

import "fmt"

// renderCheckCard writes the loading/unloading inspection card: the attendee
// roll and the judged checklist items recorded at execution.
func (g *Generator) renderCheckCard(snap Snapshot, res *StageResult) error {
	r := snap.Request
	d := newDoc()

	d.title("Loading/Unloading Inspection Card")
	d.line(30, fmt.Sprintf("Site: %s    Request: %s", g.siteName, r.ID))
	d.line(37, fmt.Sprintf("Company: %s    Material: %s    Vehicle: %s", r.Company, r.Material, r.Vehicle))
	d.line(44, fmt.Sprintf("Direction: %s    Schedule: %s %s    Gate: %s", r.Direction, r.WorkDate, r.WorkTime, r.Gate))

	d.boldLine(58, "Attendees")
	y := 65.0
	if snap.Attendees != nil {
		for _, e := range snap.Attendees.Roll() {
			mark := "[ ]"
			if e.Present {
				mark = "[V]"
			}
			d.line(y, fmt.Sprintf("%s %s", mark, e.Name))
			y += 6
		}
	} else {
		d.line(y, "not recorded")
		y += 6
	}

	y += 6
	d.boldLine(y, "Inspection items")
	y += 7
	if snap.Checklist != nil {
		for i, it := range snap.Checklist.Items() {
			d.line(y, fmt.Sprintf("%d. %-55s [%s]", i+1, it.Label, it.Judgment))
			y += 6
		}
		y += 4
		d.line(y, "Recorded: "+formatActorLine(snap.Checklist.RecordedBy, &snap.Checklist.RecordedAt))
	} else {
		d.line(y, "not recorded")
		g.warn(res, KindCheckCard, "checklist", "not recorded")
	}

	d.footer(g.now())

	out := g.layout.Path(r.ID, KindCheckCard)
	if err := d.save(out); err != nil {
		return err
	}
	res.Files[KindCheckCard] = out
	return nil
}
