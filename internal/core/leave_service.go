package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LeaveSubmission is a new leave or WFH request.
type LeaveSubmission struct {
	StartDate time.Time
	EndDate   time.Time
	Type      model.LeaveType
	Reason    string
	Note      *string
}

// Decision is the committed outcome of Decide.
type Decision struct {
	Request   model.LeaveRequest `json:"request"`
	Synthesis SynthesisResult    `json:"synthesis"`
}

type LeaveService struct {
	tx          repository.Transactor
	directory   repository.DirectoryRepository
	leaves      repository.LeaveRepository
	activity    repository.ActivityRepository
	synthesizer *Synthesizer
	publisher   messaging.Publisher
	opts        options
}

func NewLeaveService(
	tx repository.Transactor,
	directory repository.DirectoryRepository,
	leaves repository.LeaveRepository,
	activity repository.ActivityRepository,
	synthesizer *Synthesizer,
	publisher messaging.Publisher,
	opts ...Option,
) *LeaveService {
	return &LeaveService{
		tx:          tx,
		directory:   directory,
		leaves:      leaves,
		activity:    activity,
		synthesizer: synthesizer,
		publisher:   publisher,
		opts:        buildOptions(opts),
	}
}

// Submit stores a PENDING request after checking its range.
func (s *LeaveService) Submit(ctx context.Context, actor Actor, in LeaveSubmission) (*model.LeaveRequest, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", actor.EmployeeID))

	if _, err := in.Type.AttendanceStatus(); err != nil {
		return nil, validationf("leave type %q is not recognized", in.Type)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, validationf("reason is required")
	}

	start, end := model.CalendarDay(in.StartDate), model.CalendarDay(in.EndDate)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	emp, err := s.directory.GetEmployee(ctx, actor.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("employee")
	}
	if err != nil {
		return nil, storage("load employee", err)
	}
	if emp.CompanyID != actor.CompanyID {
		return nil, forbidden("employee does not belong to this company")
	}
	if emp.Status != model.EmployeeActive {
		return nil, validationf("employee is inactive")
	}

	req := model.LeaveRequest{
		ID:         s.opts.newID(),
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		StartDate:  start,
		EndDate:    end,
		Type:       in.Type,
		Reason:     reason,
		Note:       in.Note,
		Status:     model.LeavePending,
		CreatedAt:  s.opts.now().UTC(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.leaves.Create(ctx, req); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return ErrOverlap
			}
			return storage("create leave request", err)
		}
		return s.appendActivity(ctx, emp.ID, "LEAVE_SUBMITTED",
			fmt.Sprintf("%s %s..%s", req.Type, start.Format(model.DateLayout), end.Format(model.DateLayout)))
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("leave_request_id", req.ID).Str("type", string(req.Type)).Msg("Leave request submitted")
	return &req, nil
}

// Decide approves or rejects a PENDING request of the admin's company.
// Approval writes the ledger days in the same transaction as the status change.
func (s *LeaveService) Decide(ctx context.Context, actor Actor, id string, outcome model.LeaveStatus, note *string) (*Decision, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	switch outcome {
	case model.LeaveApproved, model.LeaveRejected:
	case model.LeavePending:
		return nil, validationf("decision must be APPROVED or REJECTED")
	default:
		return nil, validationf("decision %q is not recognized", outcome)
	}

	var out Decision
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.leaves.GetForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("leave request")
		}
		if err != nil {
			return storage("load leave request", err)
		}
		if req.CompanyID != actor.CompanyID {
			return notFound("leave request")
		}
		if req.Status != model.LeavePending {
			return ErrAlreadyDecided
		}

		if outcome == model.LeaveApproved {
			if out.Synthesis, err = s.synthesizer.Synthesize(ctx, *req); err != nil {
				return err
			}
		}

		decidedAt := s.opts.now().UTC()
		ok, err := s.leaves.MarkDecided(ctx, req.ID, outcome, actor.EmployeeID, decidedAt, note)
		if err != nil {
			return storage("mark leave decided", err)
		}
		if !ok {
			return ErrAlreadyDecided
		}

		req.Status = outcome
		req.ApproverID = &actor.EmployeeID
		req.DecidedAt = &decidedAt
		req.DecisionNote = note
		out.Request = *req

		return s.appendActivity(ctx, req.EmployeeID, "LEAVE_DECIDED",
			fmt.Sprintf("%s %s by %s", req.ID, outcome, actor.EmployeeID))
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("leave_request_id", id).
		Str("status", string(outcome)).
		Int("days_written", out.Synthesis.Written).
		Int("days_skipped", out.Synthesis.Skipped).
		Msg("Leave request decided")

	s.notify(ctx, out)
	return &out, nil
}

// notify publishes the decision. The decision is already committed, so a
// failure here is only logged.
func (s *LeaveService) notify(ctx context.Context, d Decision) {
	req := d.Request
	event := messaging.LeaveDecidedEvent{
		LeaveRequestID: req.ID,
		EmployeeID:     req.EmployeeID,
		CompanyID:      req.CompanyID,
		Type:           string(req.Type),
		Status:         string(req.Status),
		StartDate:      req.StartDate.Format(model.DateLayout),
		EndDate:        req.EndDate.Format(model.DateLayout),
		DaysWritten:    d.Synthesis.Written,
	}
	if req.DecidedAt != nil {
		event.DecidedAt = *req.DecidedAt
	}
	if req.DecisionNote != nil {
		event.DecisionNote = *req.DecisionNote
	}
	if emp, err := s.directory.GetEmployee(ctx, req.EmployeeID); err == nil {
		event.Email, event.FullName = emp.Email, emp.FullName
	}

	if err := s.publisher.PublishLeaveDecided(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("leave_request_id", req.ID).Msg("Failed to publish leave decision")
	}
}

// ListMine returns the caller's own requests, newest range first.
func (s *LeaveService) ListMine(ctx context.Context, actor Actor) ([]model.LeaveRequest, error) {
	reqs, err := s.leaves.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, storage("list leave requests", err)
	}
	if reqs == nil {
		reqs = []model.LeaveRequest{}
	}
	return reqs, nil
}

// ListPending returns the PENDING requests of the admin's company.
func (s *LeaveService) ListPending(ctx context.Context, actor Actor) ([]model.LeaveRequest, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	reqs, err := s.leaves.ListPending(ctx, actor.CompanyID)
	if err != nil {
		return nil, storage("list pending leave requests", err)
	}
	if reqs == nil {
		reqs = []model.LeaveRequest{}
	}
	return reqs, nil
}

func (s *LeaveService) appendActivity(ctx context.Context, accountID, action, detail string) error {
	err := s.activity.Append(ctx, model.ActivityLog{
		AccountID: accountID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.opts.now().UTC(),
	})
	if err != nil {
		return storage("append activity", err)
	}
	return nil
}
