package models

import "time"

// Judgment is the recorded verdict for a checklist item.
type Judgment string

const (
	JudgmentOK   Judgment = "OK"
	JudgmentFail Judgment = "FAIL"
	JudgmentNA   Judgment = "NA"
)

// Valid reports whether the judgment is one of the known values.
func (j Judgment) Valid() bool {
	return j == JudgmentOK || j == JudgmentFail || j == JudgmentNA
}

// Blocking reports whether this judgment prevents execution from completing.
func (j Judgment) Blocking() bool {
	return j == JudgmentFail
}

// Checklist is the loading/unloading inspection card recorded at execution.
// One named field per item; no free-form keys.
type Checklist struct {
	RequestID string `json:"request_id"`

	// TwoPointLashing: at least two lashing points per load unit.
	TwoPointLashing Judgment `json:"two_point_lashing"`

	// LashingGear: rope and banding condition inspected.
	LashingGear Judgment `json:"lashing_gear"`

	// StackHeight: load stacked at or below 4m, no fall hazard.
	StackHeight Judgment `json:"stack_height"`

	// BedWithinWidth: no overhang beyond the bed, tailgate closed.
	BedWithinWidth Judgment `json:"bed_within_width"`

	// WheelChocks: chocks placed under the vehicle.
	WheelChocks Judgment `json:"wheel_chocks"`

	// WithinRatedLoad: load within the rated capacity.
	WithinRatedLoad Judgment `json:"within_rated_load"`

	// CenterOfGravity: load balanced, no lean to one side.
	CenterOfGravity Judgment `json:"center_of_gravity"`

	// UnloadZoneControl: unloading zone delineated and controlled.
	UnloadZoneControl Judgment `json:"unload_zone_control"`

	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ChecklistItem pairs a printed label with its judgment.
type ChecklistItem struct {
	Label    string
	Judgment Judgment
}

// Items returns label/judgment pairs in the order they appear on the printed
// inspection card.
func (c *Checklist) Items() []ChecklistItem {
	return []ChecklistItem{
		{"Two or more lashing points per load unit", c.TwoPointLashing},
		{"Rope and banding condition inspected", c.LashingGear},
		{"Stack height 4m or below, no fall hazard", c.StackHeight},
		{"Load within bed width, tailgate closed", c.BedWithinWidth},
		{"Wheel chocks in place", c.WheelChocks},
		{"Load within rated capacity", c.WithinRatedLoad},
		{"Center of gravity checked, no lean", c.CenterOfGravity},
		{"Unloading zone delineated and controlled", c.UnloadZoneControl},
	}
}

// Failures returns the labels of items judged FAIL.
func (c *Checklist) Failures() []string {
	var out []string
	for _, it := range c.Items() {
		if it.Judgment.Blocking() {
			out = append(out, it.Label)
		}
	}
	return out
}

// Validate checks every judgment holds a known value.
func (c *Checklist) Validate() error {
	var errs ValidationErrors
	for _, it := range c.Items() {
		if !it.Judgment.Valid() {
			errs.AddMessage(it.Label, "judgment must be OK, FAIL or NA")
		}
	}
	return errs.Err()
}

// Attendees is the fixed roll of people that must be present for a loading
// or unloading operation.
type Attendees struct {
	PartnerManager    bool `json:"partner_manager"`    // partner company manager
	EquipmentOperator bool `json:"equipment_operator"` // lifting equipment operator
	VehicleDriver     bool `json:"vehicle_driver"`
	Spotter           bool `json:"spotter"` // traffic spotter
	SafetyWatch       bool `json:"safety_watch"`
}

// AttendeeEntry pairs a printed attendee name with presence.
type AttendeeEntry struct {
	Name    string
	Present bool
}

// Roll returns name/present pairs in printed order.
func (a Attendees) Roll() []AttendeeEntry {
	return []AttendeeEntry{
		{"Partner company manager", a.PartnerManager},
		{"Equipment operator", a.EquipmentOperator},
		{"Vehicle driver", a.VehicleDriver},
		{"Spotter", a.Spotter},
		{"Safety watch", a.SafetyWatch},
	}
}

// Missing returns the names of unconfirmed attendees.
func (a Attendees) Missing() []string {
	var out []string
	for _, e := range a.Roll() {
		if !e.Present {
			out = append(out, e.Name)
		}
	}
	return out
}
