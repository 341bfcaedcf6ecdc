package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
)

// Services are the core services exposed over HTTP.
type Services struct {
	Attendance *core.AttendanceService
	Leave      *core.LeaveService
	Company    *core.CompanyService
	Account    *core.AccountService
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(svc Services, jwtSecret []byte) *mux.Router {
	attendance := handler.AttendanceHandler{Service: svc.Attendance}
	leave := handler.LeaveHandler{Service: svc.Leave}
	company := handler.CompanyHandler{Service: svc.Company}
	account := handler.AccountHandler{Service: svc.Account}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)
	api.HandleFunc("/accounts/verify", account.Verify).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Authenticate(jwtSecret))

	authed.HandleFunc("/attendance", attendance.Record).Methods(http.MethodPost)
	authed.HandleFunc("/attendance/location-check", attendance.LocationCheck).Methods(http.MethodPost)
	authed.HandleFunc("/attendance/monthly", attendance.Monthly).Methods(http.MethodGet)
	authed.HandleFunc("/leave", leave.Submit).Methods(http.MethodPost)
	authed.HandleFunc("/leave", leave.ListMine).Methods(http.MethodGet)

	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/attendance/{employeeId}/{date}", attendance.Correct).Methods(http.MethodPut)
	admin.HandleFunc("/leave", leave.ListPending).Methods(http.MethodGet)
	admin.HandleFunc("/leave/{id}", leave.Decide).Methods(http.MethodPatch)
	admin.HandleFunc("/company/geofence", company.UpdateGeofence).Methods(http.MethodPatch)
	admin.HandleFunc("/company/suspension", company.SetSuspension).Methods(http.MethodPatch)

	return r
}
