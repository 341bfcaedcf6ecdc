package core

import (
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// Actor is the authenticated caller. The core trusts these ids.
type Actor struct {
	EmployeeID string
	CompanyID  string
	Role       model.Role
}

func (a Actor) requireAdmin() error {
	switch a.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleEmployee:
		return forbidden("admin role required")
	}
	return forbidden("unknown role")
}

type options struct {
	now   func() time.Time
	newID func() string
}

// Option customizes a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
