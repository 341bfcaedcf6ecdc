package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// SystemCompanyID is the reserved, platform-owned company. It can never be edited or suspended.
const SystemCompanyID = "00000000-0000-0000-0000-000000000000"

// AttendanceStatus is the terminal classification of a ledger day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusWFH     AttendanceStatus = "WFH"
	StatusLeave   AttendanceStatus = "LEAVE"
	StatusAbsent  AttendanceStatus = "ABSENT"
)

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusWFH, StatusLeave, StatusAbsent:
		return true
	}
	return false
}

// RecordSource tells who wrote a ledger row.
type RecordSource string

const (
	SourceCheckIn    RecordSource = "CHECK_IN"
	SourceLeave      RecordSource = "LEAVE"
	SourceCorrection RecordSource = "CORRECTION"
)

// LeaveType is the kind of absence requested.
type LeaveType string

const (
	LeaveTypeLeave LeaveType = "LEAVE"
	LeaveTypeWFH   LeaveType = "WFH"
)

// AttendanceStatus maps a leave type onto the ledger status it synthesizes.
func (t LeaveType) AttendanceStatus() (AttendanceStatus, error) {
	switch t {
	case LeaveTypeLeave:
		return StatusLeave, nil
	case LeaveTypeWFH:
		return StatusWFH, nil
	}
	return "", fmt.Errorf("unknown leave type %q", t)
}

// LeaveStatus is the approval state of a request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// EmployeeStatus is the soft-deactivation flag of an employee.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "ACTIVE"
	EmployeeInactive EmployeeStatus = "INACTIVE"
)

// Role is the authorization level carried by the identity token.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// Action is the attendance action requested by a client.
type Action string

const (
	ActionIn  Action = "IN"
	ActionOut Action = "OUT"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geofence is the circular acceptance region around an office.
type Geofence struct {
	Center  Coordinate `json:"center"`
	RadiusM float64    `json:"radiusM"`
}

type Company struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Geofence  Geofence `json:"geofence"`
	TimeZone  string   `json:"timeZone"`
	Suspended bool     `json:"suspended"`
}

// Location resolves the company's IANA time zone. An empty zone means UTC.
func (c Company) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

type Employee struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"companyId"`
	ShiftID   *string        `json:"shiftId,omitempty"`
	Email     string         `json:"email"`
	FullName  string         `json:"fullName"`
	Role      Role           `json:"role"`
	Status    EmployeeStatus `json:"status"`
}

// Account is the registration view of an employee row.
type Account struct {
	ID                string    `json:"id"`
	CompanyID         string    `json:"companyId"`
	Email             string    `json:"email"`
	Verified          bool      `json:"verified"`
	VerificationToken *string   `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

type AttendanceRecord struct {
	ID             string           `json:"id"`
	EmployeeID     string           `json:"employeeId"`
	WorkDate       time.Time        `json:"workDate"`
	Status         AttendanceStatus `json:"status"`
	Source         RecordSource     `json:"source"`
	CheckInAt      *time.Time       `json:"checkInAt,omitempty"`
	CheckInCoord   *Coordinate      `json:"checkInCoord,omitempty"`
	CheckOutAt     *time.Time       `json:"checkOutAt,omitempty"`
	CheckOutCoord  *Coordinate      `json:"checkOutCoord,omitempty"`
	Note           *string          `json:"note,omitempty"`
	LeaveRequestID *string          `json:"leaveRequestId,omitempty"`
}

// CheckedIn reports whether the day has a physical check-in.
func (r AttendanceRecord) CheckedIn() bool { return r.CheckInAt != nil }

// CheckedOut reports whether the day is closed.
func (r AttendanceRecord) CheckedOut() bool { return r.CheckOutAt != nil }

type LeaveRequest struct {
	ID           string      `json:"id"`
	EmployeeID   string      `json:"employeeId"`
	CompanyID    string      `json:"companyId"`
	StartDate    time.Time   `json:"startDate"`
	EndDate      time.Time   `json:"endDate"`
	Type         LeaveType   `json:"type"`
	Reason       string      `json:"reason"`
	Note         *string     `json:"note,omitempty"`
	Status       LeaveStatus `json:"status"`
	ApproverID   *string     `json:"approverId,omitempty"`
	DecidedAt    *time.Time  `json:"decidedAt,omitempty"`
	DecisionNote *string     `json:"decisionNote,omitempty"`
	NotifiedAt   *time.Time  `json:"notifiedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Overlaps reports whether two inclusive day ranges intersect.
func (l LeaveRequest) Overlaps(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}

// Blocking reports whether the request still holds its date range.
func (l LeaveRequest) Blocking() bool {
	switch l.Status {
	case LeavePending, LeaveApproved:
		return true
	case LeaveRejected:
		return false
	}
	return false
}

// ActivityLog is an append-only audit row owned by an account.
type ActivityLog struct {
	AccountID string    `json:"accountId"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// CalendarDay truncates t to its calendar day in t's own location and
// returns it as a UTC midnight, the representation stored in DATE columns.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DaysInRange returns every calendar day of the inclusive range [start, end].
func DaysInRange(start, end time.Time) []time.Time {
	start, end = CalendarDay(start), CalendarDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
