// Command load-test fires concurrent check-ins for one employee and reports
// how many were accepted. Against a correct server exactly one succeeds and
// the rest come back 409.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret used to mint the identity token")
	employeeID := flag.String("employee", "44444444-4444-4444-4444-444444444444", "employee id")
	companyID := flag.String("company", "11111111-1111-1111-1111-111111111111", "company id")
	lat := flag.Float64("lat", -6.2, "reported latitude")
	lon := flag.Float64("lon", 106.816666, "reported longitude")
	requests := flag.Int("n", 200, "number of concurrent check-ins")
	flag.Parse()

	token, err := middleware.IssueToken([]byte(*secret), core.Actor{
		EmployeeID: *employeeID,
		CompanyID:  *companyID,
		Role:       model.RoleEmployee,
	}, time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}

	url := *baseURL + "/api/v1/attendance"
	payload := []byte(fmt.Sprintf(`{"coords":{"lat":%f,"lon":%f},"action":"IN"}`, *lat, *lon))

	fmt.Printf("Starting load test: %d concurrent check-ins for %s to %s\n", *requests, *employeeID, url)

	var (
		wg                       sync.WaitGroup
		created, conflict, other int64
		start                    = make(chan struct{})
	)

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				atomic.AddInt64(&other, 1)
				return
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&other, 1)
			}
		}()
	}

	startTime := time.Now()
	close(start)
	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Created (201):  %d\n", created)
	fmt.Printf("Conflict (409): %d\n", conflict)
	fmt.Printf("Other:          %d\n", other)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(*requests)/duration.Seconds())

	if created > 1 {
		fmt.Println("FAIL: more than one check-in was accepted for the same day")
		os.Exit(1)
	}
}
