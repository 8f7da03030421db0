// Package server is the Wanderly backend: trip pages with guarded delete forms,
// a cached readiness endpoint and a warming page for slow starts.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/aravindh-murugesan/wanderly-go/internal/guard"
	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the values rendered into the pages.
type Config struct {
	ReadyPath    string
	LoginPath    string
	WarmingPath  string
	PollInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.ReadyPath == "" {
		c.ReadyPath = readiness.DefaultReadyPath
	}
	if c.LoginPath == "" {
		c.LoginPath = readiness.DefaultLoginPath
	}
	if c.WarmingPath == "" {
		c.WarmingPath = "/warming"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = readiness.DefaultInterval
	}
}

// Server wires the store and the health probe to HTTP routes.
type Server struct {
	store  *Store
	health *Health
	logger *slog.Logger
	cfg    Config
	pages  *template.Template
}

type pageData struct {
	Title      string
	Marker     string
	Warning    string
	Trips      []Trip
	Trip       *Trip
	ReadyPath  string
	LoginPath  string
	IntervalMS int64
}

// New parses the page templates and returns a server. It does not listen.
func New(store *Store, health *Health, cfg Config, logger *slog.Logger) (*Server, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Server{store: store, health: health, logger: logger, cfg: cfg, pages: pages}, nil
}

// Router returns the route table.
//
//	GET  /ready                               200 when healthy, 503 otherwise
//	GET  /warming                             page polling /ready, then moving to /login
//	GET  /login                               sign-in page
//	GET  /                                    trip list
//	GET  /trips/new                           new trip form
//	POST /trips                               create a trip
//	GET  /trips/{id}                          itinerary
//	POST /trips/{id}/plans                    add a plan
//	POST /trips/{id}/delete                   delete trip and its plans
//	POST /trips/{id}/days/delete              delete every plan of a day
//	POST /trips/{id}/plans/{plan}/delete      delete one plan
//
// While the backend is not ready, page reads redirect to the warming page and
// writes answer 503.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc(s.cfg.ReadyPath, s.Ready).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(s.cfg.WarmingPath, s.Warming).Methods(http.MethodGet)

	pages := r.NewRoute().Subrouter()
	pages.Use(s.requireReady)
	pages.HandleFunc(s.cfg.LoginPath, s.Login).Methods(http.MethodGet)
	pages.HandleFunc("/", s.Index).Methods(http.MethodGet)
	pages.HandleFunc("/trips/new", s.NewTrip).Methods(http.MethodGet)
	pages.HandleFunc("/trips", s.CreateTrip).Methods(http.MethodPost)
	pages.HandleFunc("/trips/{id:[0-9]+}", s.TripSchedule).Methods(http.MethodGet)
	pages.HandleFunc("/trips/{id:[0-9]+}/plans", s.CreatePlan).Methods(http.MethodPost)
	pages.HandleFunc("/trips/{id:[0-9]+}/delete", s.DeleteTrip).Methods(http.MethodPost)
	pages.HandleFunc("/trips/{id:[0-9]+}/days/delete", s.DeleteDay).Methods(http.MethodPost)
	pages.HandleFunc("/trips/{id:[0-9]+}/plans/{plan:[0-9]+}/delete", s.DeletePlan).Methods(http.MethodPost)

	return r
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")

	status, body := http.StatusOK, map[string]string{"status": "ready"}
	if !s.health.Ready() {
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "warming"}
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) Warming(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, "warming.html", s.page("Warming up"))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", s.page("Sign in"))
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	trips, err := s.store.ListTrips(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := s.page("Trips")
	data.Trips = trips
	s.render(w, "home.html", data)
}

func (s *Server) TripSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	trip, err := s.store.FindTrip(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := s.page(trip.Destination)
	data.Trip = trip
	s.render(w, "itinerary.html", data)
}

func (s *Server) NewTrip(w http.ResponseWriter, r *http.Request) {
	s.render(w, "new_trip.html", s.page("Plan a new trip"))
}

func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	owner, err := s.store.Owner(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	trip := Trip{
		Destination: r.PostForm.Get("destination"),
		DepartDate:  r.PostForm.Get("depart_date"),
		ReturnDate:  r.PostForm.Get("return_date"),
		UserID:      owner.ID,
	}
	if err := s.store.CreateTrip(r.Context(), &trip); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Trip created", "trip_id", trip.ID, "destination", trip.Destination)
	http.Redirect(w, r, fmt.Sprintf("/trips/%d", trip.ID), http.StatusSeeOther)
}

func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var cost float64
	if raw := strings.TrimSpace(r.PostForm.Get("cost")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid cost", http.StatusBadRequest)
			return
		}
		cost = v
	}
	day := r.PostForm.Get("at_date")

	plan := Plan{
		AtDate:   &day,
		AtTime:   r.PostForm.Get("at_time"),
		Activity: r.PostForm.Get("activity"),
		Cost:     cost,
		Note:     r.PostForm.Get("note"),
		TripID:   id,
	}
	if err := s.store.CreatePlan(r.Context(), &plan); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Plan added", "trip_id", id, "plan_id", plan.ID, "day", plan.Day())
	http.Redirect(w, r, fmt.Sprintf("/trips/%d", id), http.StatusSeeOther)
}

func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTrip(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Trip deleted", "trip_id", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) DeleteDay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	day := r.PostForm.Get("day")
	removed, err := s.store.DeleteDay(r.Context(), id, day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Day deleted", "trip_id", id, "day", day, "plans_removed", removed)
	http.Redirect(w, r, fmt.Sprintf("/trips/%d", id), http.StatusSeeOther)
}

func (s *Server) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	planID, ok := s.pathID(w, r, "plan")
	if !ok {
		return
	}
	if err := s.store.DeletePlan(r.Context(), id, planID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Plan deleted", "trip_id", id, "plan_id", planID)
	http.Redirect(w, r, fmt.Sprintf("/trips/%d", id), http.StatusSeeOther)
}

func (s *Server) page(title string) pageData {
	return pageData{
		Title:      title,
		Marker:     guard.DeleteMarker,
		Warning:    guard.WarningMessage,
		ReadyPath:  s.cfg.ReadyPath,
		LoginPath:  s.cfg.LoginPath,
		IntervalMS: s.cfg.PollInterval.Milliseconds(),
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, key string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 64)
	if err != nil {
		http.Error(w, "invalid "+key, http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if errors.Is(err, ErrInvalid) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.health.Ready() {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.PollInterval.Seconds())))
				http.Error(w, "backend is warming up", http.StatusServiceUnavailable)
				return
			}
			http.Redirect(w, r, s.cfg.WarmingPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
