package core

import (
	"context"
	"errors"
	"fmt"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// CompanyService covers admin edits of the caller's own company.
type CompanyService struct {
	directory repository.DirectoryRepository
	activity  repository.ActivityRepository
	opts      options
}

func NewCompanyService(directory repository.DirectoryRepository, activity repository.ActivityRepository, opts ...Option) *CompanyService {
	return &CompanyService{directory: directory, activity: activity, opts: buildOptions(opts)}
}

func (s *CompanyService) guard(actor Actor) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	if actor.CompanyID == model.SystemCompanyID {
		return forbidden("the system company cannot be modified")
	}
	return nil
}

// UpdateGeofence moves or resizes the office geofence.
func (s *CompanyService) UpdateGeofence(ctx context.Context, actor Actor, fence model.Geofence) (*model.Company, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	if err := ValidateCoordinate(fence.Center); err != nil {
		return nil, err
	}
	if fence.RadiusM <= 0 {
		return nil, validationf("radius must be positive")
	}

	if err := s.directory.UpdateCompanyGeofence(ctx, actor.CompanyID, fence); err != nil {
		return nil, s.mapErr("update geofence", err)
	}
	s.audit(ctx, actor, "GEOFENCE_UPDATED",
		fmt.Sprintf("(%f, %f) r=%.1f m", fence.Center.Lat, fence.Center.Lon, fence.RadiusM))
	return s.reload(ctx, actor.CompanyID)
}

// SetSuspended suspends or reinstates the company.
func (s *CompanyService) SetSuspended(ctx context.Context, actor Actor, suspended bool) (*model.Company, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	if err := s.directory.SetCompanySuspended(ctx, actor.CompanyID, suspended); err != nil {
		return nil, s.mapErr("set suspension", err)
	}
	s.audit(ctx, actor, "COMPANY_SUSPENSION", fmt.Sprintf("suspended=%t", suspended))
	return s.reload(ctx, actor.CompanyID)
}

func (s *CompanyService) reload(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.directory.GetCompany(ctx, id)
	if err != nil {
		return nil, s.mapErr("load company", err)
	}
	return c, nil
}

func (s *CompanyService) mapErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("company")
	}
	return storage(op, err)
}

// audit is best effort: the company change is already stored.
func (s *CompanyService) audit(ctx context.Context, actor Actor, action, detail string) {
	err := s.activity.Append(ctx, model.ActivityLog{
		AccountID: actor.EmployeeID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.opts.now().UTC(),
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("Failed to append activity")
	}
}
