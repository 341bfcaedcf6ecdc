package main

import (
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository/memory"
	"github.com/rs/zerolog/log"
)

// Fixed ids of the in-memory demo tenant, so tokens can be minted against them.
const (
	demoCompanyID  = "11111111-1111-1111-1111-111111111111"
	demoShiftID    = "22222222-2222-2222-2222-222222222222"
	demoAdminID    = "33333333-3333-3333-3333-333333333333"
	demoEmployeeID = "44444444-4444-4444-4444-444444444444"
)

func seedDemo(store *memory.Store) {
	start, _ := model.ParseTimeOfDay("09:00")
	end, _ := model.ParseTimeOfDay("17:00")
	shiftID := demoShiftID

	store.PutCompany(model.Company{
		ID:       demoCompanyID,
		Name:     "Demo",
		Geofence: model.Geofence{Center: model.Coordinate{Lat: -6.2, Lon: 106.816666}, RadiusM: 100},
		TimeZone: "Asia/Jakarta",
	})
	store.PutShift(model.Shift{
		ID:        demoShiftID,
		CompanyID: demoCompanyID,
		Name:      "Office hours",
		Start:     &start,
		End:       &end,
		Weekdays:  [7]bool{false, true, true, true, true, true, false},
	})
	store.PutEmployee(model.Employee{
		ID: demoAdminID, CompanyID: demoCompanyID, Email: "admin@demo.local", FullName: "Demo Admin",
		Role: model.RoleAdmin, Status: model.EmployeeActive,
	})
	store.PutEmployee(model.Employee{
		ID: demoEmployeeID, CompanyID: demoCompanyID, ShiftID: &shiftID, Email: "employee@demo.local", FullName: "Demo Employee",
		Role: model.RoleEmployee, Status: model.EmployeeActive,
	})

	log.Info().
		Str("company_id", demoCompanyID).
		Str("admin_id", demoAdminID).
		Str("employee_id", demoEmployeeID).
		Msg("Seeded in-memory demo tenant")
}
