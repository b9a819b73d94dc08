package workflow

import (
	"context"
	"fmt"

	"github.com/materialgate/gatepass/internal/models"
)

// GateStatus is the guard-facing verdict for one scanned request id. It is
// advisory: checking consumes nothing and may be repeated, so a guard can
// re-scan at a second gate or after a radio check.
type GateStatus struct {
	RequestID string               `json:"request_id"`
	Status    models.RequestStatus `json:"status"`
	Pass      bool                 `json:"pass"`
	Summary   string               `json:"summary"`
}

// GateCheck looks up a scanned request id and reports whether the vehicle
// may pass. Read-only; no session required.
func (s *Service) GateCheck(ctx context.Context, id string) (*GateStatus, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pass := req.Status == models.StatusApproved || req.Status == models.StatusExecuted
	summary := fmt.Sprintf("%s / %s / %s %s / gate %s",
		req.Company, req.Vehicle, req.WorkDate, req.WorkTime, req.Gate)

	s.log.Info().
		Str("request_id", id).
		Str("status", string(req.Status)).
		Bool("pass", pass).
		Msg("gate check")

	return &GateStatus{
		RequestID: req.ID,
		Status:    req.Status,
		Pass:      pass,
		Summary:   summary,
	}, nil
}
