package core

import (
	"context"
	"fmt"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

// SynthesisResult counts the days of a leave range.
type SynthesisResult struct {
	// Written days now hold the leave status.
	Written int `json:"written"`
	// Skipped days already held a check-in or an admin correction.
	Skipped int `json:"skipped"`
}

// Synthesizer materializes an approved leave request into ledger days.
type Synthesizer struct {
	ledger repository.AttendanceRepository
	newID  func() string
}

func NewSynthesizer(ledger repository.AttendanceRepository, opts ...Option) *Synthesizer {
	o := buildOptions(opts)
	return &Synthesizer{ledger: ledger, newID: o.newID}
}

// Synthesize writes one LEAVE-source record per day of req. Running it
// again for the same request leaves the ledger unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, req model.LeaveRequest) (SynthesisResult, error) {
	status, err := req.Type.AttendanceStatus()
	if err != nil {
		return SynthesisResult{}, validationf("%v", err)
	}

	days := model.DaysInRange(req.StartDate, req.EndDate)
	note := fmt.Sprintf("system-generated from %s request %s", req.Type, req.ID)
	reqID := req.ID

	recs := make([]model.AttendanceRecord, 0, len(days))
	for _, day := range days {
		n := note
		recs = append(recs, model.AttendanceRecord{
			ID:             s.newID(),
			EmployeeID:     req.EmployeeID,
			WorkDate:       day,
			Status:         status,
			Source:         model.SourceLeave,
			Note:           &n,
			LeaveRequestID: &reqID,
		})
	}

	written, err := s.ledger.UpsertSynthesized(ctx, recs)
	if err != nil {
		return SynthesisResult{}, storage("synthesize leave days", err)
	}
	return SynthesisResult{Written: written, Skipped: len(recs) - written}, nil
}
