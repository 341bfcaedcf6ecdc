package messaging

import "time"

// LeaveDecidedEvent is the JSON payload sent via SQS to the notification
// queue once a leave or WFH decision has been committed.
type LeaveDecidedEvent struct {
	LeaveRequestID string    `json:"leaveRequestId"`
	EmployeeID     string    `json:"employeeId"`
	CompanyID      string    `json:"companyId"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	StartDate      string    `json:"startDate"`
	EndDate        string    `json:"endDate"`
	DecisionNote   string    `json:"decisionNote,omitempty"`
	DaysWritten    int       `json:"daysWritten"`
	DecidedAt      time.Time `json:"decidedAt"`
}
