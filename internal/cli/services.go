package cli

import (
	"context"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/workflow"
)

// services bundles what most subcommands need: the open store, the artifact
// generator and the workflow service over them.
type services struct {
	db  *db.DB
	gen *artifacts.Generator
	svc *workflow.Service
}

func openServices(ctx context.Context) (*services, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, db.Config{
		Path:          cfg.DatabasePath(),
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return nil, err
	}

	gen := artifacts.NewGenerator(
		artifacts.Layout{Base: cfg.Storage.DataDir},
		cfg.Site.Name,
	)
	svc := workflow.NewService(database, gen, workflow.Config{
		ApprovalChains: cfg.ApprovalChains(),
		ExecuteRoles:   cfg.ExecuteRoles(),
		TrainingURL:    cfg.Site.TrainingURL,
	})

	return &services{db: database, gen: gen, svc: svc}, nil
}

func (s *services) Close() error {
	return s.db.Close()
}
