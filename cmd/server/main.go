package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"clinicbooking/internal/api"
	"clinicbooking/internal/auth"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v78"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_API_KEY")

	loc := clinicLocation()
	cutoff := cancelCutoff()

	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	scheduleChangeRepo := repository.NewScheduleChangeRepository(db)
	jobRepo := repository.NewJobRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	adminAuthRepo := repository.NewAdminAuthRepository(db)

	notifier := service.NewSenderService(patientRepo, loc)
	ledger := service.NewStripeRefundLedger()
	lifecycle := service.NewLifecycleService(appointmentRepo, ledger, notifier)
	bookingSvc := service.NewBookingService(appointmentRepo, availabilityRepo, lifecycle, notifier, loc, cutoff)
	leaveSvc := service.NewLeaveService(leaveRepo, availabilityRepo, appointmentRepo, lifecycle, loc)
	scheduleSvc := service.NewScheduleService(availabilityRepo, scheduleChangeRepo, loc)
	sweeperSvc := service.NewSweeperService(jobRepo, lifecycle, loc)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)

	bookingHandler := api.NewBookingHandler(bookingSvc)
	adminHandler := api.NewAdminHandler(bookingSvc, leaveSvc, scheduleSvc, sweeperSvc)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)

	startSweeperSchedule(sweeperSvc, loc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/appointments", bookingHandler.BookAppointment).Methods("POST")
	r.HandleFunc("/api/appointments/{id}", bookingHandler.GetAppointment).Methods("GET")
	r.HandleFunc("/api/appointments/{id}", bookingHandler.RescheduleAppointment).Methods("PUT")
	r.HandleFunc("/api/appointments/{id}", bookingHandler.CancelAppointment).Methods("DELETE")
	r.HandleFunc("/api/patients/{patient_id}/appointments", bookingHandler.ListPatientAppointments).Methods("GET")
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/register", adminAuthHandler.CreateUserAdmin).Methods("POST")
	admin.HandleFunc("/appointments", adminHandler.ListAppointments).Methods("GET")
	admin.HandleFunc("/appointments/{id}", adminHandler.CancelAppointment).Methods("DELETE")
	admin.HandleFunc("/appointments/{id}/checkin", adminHandler.CheckInAppointment).Methods("POST")
	admin.HandleFunc("/appointments/{id}/consulted", adminHandler.MarkConsulted).Methods("POST")
	admin.HandleFunc("/sweep", adminHandler.TriggerSweep).Methods("POST")
	admin.HandleFunc("/leave", adminHandler.SubmitLeave).Methods("POST")
	admin.HandleFunc("/leave/pending", adminHandler.ListPendingLeave).Methods("GET")
	admin.HandleFunc("/leave/{id}/approve", adminHandler.ApproveLeave).Methods("POST")
	admin.HandleFunc("/leave/{id}/reject", adminHandler.RejectLeave).Methods("POST")
	admin.HandleFunc("/schedule/bulk", adminHandler.BulkCreateSchedule).Methods("POST")
	admin.HandleFunc("/schedule/unavailable", adminHandler.SetUnavailable).Methods("POST")
	admin.HandleFunc("/schedule/{doctor_id}", adminHandler.ListAvailability).Methods("GET")
	admin.HandleFunc("/schedule-changes", adminHandler.SubmitScheduleChange).Methods("POST")
	admin.HandleFunc("/schedule-changes/{doctor_id}", adminHandler.ListScheduleChanges).Methods("GET")
	admin.HandleFunc("/schedule-changes/{id}/approve", adminHandler.ApproveScheduleChange).Methods("POST")
	admin.HandleFunc("/schedule-changes/{id}/reject", adminHandler.RejectScheduleChange).Methods("POST")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, cors(handlers.LoggingHandler(os.Stdout, r))))
}

// startSweeperSchedule runs the no-show sweep at each session end boundary
// and once per hour as a catch-up, all in clinic time.
func startSweeperSchedule(sweeper *service.SweeperService, loc *time.Location) {
	c := cron.New(cron.WithLocation(loc))
	for _, spec := range []string{"0 13 * * *", "0 18 * * *", "30 * * * *"} {
		if _, err := c.AddFunc(spec, func() { sweeper.Run() }); err != nil {
			log.Fatalf("Failed to schedule sweep job (%s): %v", spec, err)
		}
	}
	c.Start()
}

func clinicLocation() *time.Location {
	name := os.Getenv("CLINIC_TIMEZONE")
	if name == "" {
		name = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("Invalid CLINIC_TIMEZONE %q: %v", name, err)
	}
	return loc
}

func cancelCutoff() time.Duration {
	hours := 2
	if v := os.Getenv("CANCEL_CUTOFF_HOURS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid CANCEL_CUTOFF_HOURS %q: %v", v, err)
		}
		hours = parsed
	}
	return time.Duration(hours) * time.Hour
}
