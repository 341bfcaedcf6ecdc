package core

import (
	"context"
	"testing"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	syn := NewSynthesizer(store.Attendance())
	req := model.LeaveRequest{
		ID:         "leave-1",
		EmployeeID: employeeID,
		StartDate:  date(t, "2025-01-10"),
		EndDate:    date(t, "2025-01-12"),
		Type:       model.LeaveTypeLeave,
		Status:     model.LeaveApproved,
	}

	first, err := syn.Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, SynthesisResult{Written: 3}, first)
	before := store.Records(employeeID)

	_, err = syn.Synthesize(context.Background(), req)
	require.NoError(t, err)
	after := store.Records(employeeID)

	require.Len(t, after, 3)
	for i := range after {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, model.StatusLeave, after[i].Status)
		assert.Equal(t, "system-generated from LEAVE request leave-1", *after[i].Note)
	}
}

func TestSynthesizeSkipsManualDays(t *testing.T) {
	store := memory.NewStore()
	store.PutRecord(model.AttendanceRecord{
		ID: "corrected", EmployeeID: employeeID, WorkDate: date(t, "2025-01-11"),
		Status: model.StatusAbsent, Source: model.SourceCorrection,
	})
	syn := NewSynthesizer(store.Attendance())

	res, err := syn.Synthesize(context.Background(), model.LeaveRequest{
		ID: "wfh-1", EmployeeID: employeeID, Type: model.LeaveTypeWFH,
		StartDate: date(t, "2025-01-10"), EndDate: date(t, "2025-01-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, SynthesisResult{Written: 2, Skipped: 1}, res)

	recs := store.Records(employeeID)
	require.Len(t, recs, 3)
	assert.Equal(t, model.StatusWFH, recs[0].Status)
	assert.Equal(t, "corrected", recs[1].ID)
	assert.Equal(t, model.StatusAbsent, recs[1].Status)
	assert.Equal(t, model.StatusWFH, recs[2].Status)
}

func TestSynthesizeRejectsUnknownType(t *testing.T) {
	syn := NewSynthesizer(memory.NewStore().Attendance())

	_, err := syn.Synthesize(context.Background(), model.LeaveRequest{
		ID: "x", EmployeeID: employeeID, Type: "SICK",
		StartDate: date(t, "2025-01-10"), EndDate: date(t, "2025-01-10"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}
