package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/materialgate/gatepass/internal/models"
)

func TestAuditRepository_AppendAndList(t *testing.T) {
	database := setupTestDB(t)
	repo := NewAuditRepository(database)
	ctx := context.Background()

	base := time.Date(2026, 2, 6, 7, 0, 0, 0, time.UTC)
	entries := []*models.AuditEntry{
		{RequestID: "REQ_a", Action: models.AuditRequestSubmitted, Actor: "Kim/Worker", ActorRole: models.RoleRequester, Timestamp: base},
		{RequestID: "REQ_a", Action: models.AuditStepSigned, Actor: "Lee/Supervisor", ActorRole: models.RoleSupervisor, Detail: "step 1 (supervisor)", Timestamp: base.Add(time.Hour)},
		{RequestID: "REQ_b", Action: models.AuditRequestSubmitted, Actor: "Kim/Worker", ActorRole: models.RoleRequester, Timestamp: base},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if e.ID == "" {
			t.Fatal("expected generated id")
		}
	}

	trail, err := repo.ListByRequest(ctx, "REQ_a")
	if err != nil {
		t.Fatalf("ListByRequest failed: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(trail))
	}
	if trail[0].Action != models.AuditRequestSubmitted || trail[1].Action != models.AuditStepSigned {
		t.Fatalf("entries out of order: %+v", trail)
	}
	if trail[1].Detail != "step 1 (supervisor)" {
		t.Fatalf("detail lost: %+v", trail[1])
	}
}

func TestAuditRepository_RejectsAnonymousEntries(t *testing.T) {
	database := setupTestDB(t)
	repo := NewAuditRepository(database)
	ctx := context.Background()

	bad := []*models.AuditEntry{
		{Action: models.AuditRequestSubmitted, Actor: "a", ActorRole: models.RoleRequester},
		{RequestID: "REQ_a", Actor: "a", ActorRole: models.RoleRequester},
		{RequestID: "REQ_a", Action: models.AuditRequestSubmitted, ActorRole: models.RoleRequester},
		{RequestID: "REQ_a", Action: models.AuditRequestSubmitted, Actor: "a"},
	}
	for i, e := range bad {
		if err := repo.Append(ctx, e); !errors.Is(err, ErrInvalidAuditEntry) {
			t.Fatalf("case %d: expected ErrInvalidAuditEntry, got %v", i, err)
		}
	}
}
