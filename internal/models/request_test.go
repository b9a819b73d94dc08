package models

import "testing"

func TestRequestDraftValidateListsAllMissingFields(t *testing.T) {
	draft := RequestDraft{}
	err := draft.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	verrs, ok := err.(*ValidationErrors)
	if !ok {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	fields := verrs.Fields()
	want := []string{"direction", "company", "material", "vehicle", "driver_contact"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d failing fields, got %v", len(want), fields)
	}
	for i, f := range want {
		if fields[i] != f {
			t.Fatalf("expected field %s at %d, got %s", f, i, fields[i])
		}
	}
}

func TestRequestDraftValidateAccepted(t *testing.T) {
	draft := RequestDraft{
		Direction:     DirectionOut,
		Company:       "Hanjin Logistics",
		Material:      "Form panels",
		Vehicle:       "88Du1234",
		DriverContact: "010-1234-5678",
	}
	if err := draft.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := map[RequestStatus]bool{
		StatusPending:   false,
		StatusApproved:  false,
		StatusExecuting: false,
		StatusRejected:  true,
		StatusExecuted:  true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Fatalf("%s: expected Terminal()=%v, got %v", status, want, got)
		}
	}
}

func TestMissingRequiredCategoriesIgnoresOptional(t *testing.T) {
	photos := []Photo{
		{Category: PhotoBefore},
		{Category: PhotoOptional},
		{Category: PhotoOptional},
	}
	missing := MissingRequiredCategories(photos)
	if len(missing) != 2 || missing[0] != PhotoAfter || missing[1] != PhotoTiedown {
		t.Fatalf("unexpected missing set: %v", missing)
	}
}
