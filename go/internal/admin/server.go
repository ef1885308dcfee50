package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/scheduler"
)

// SchedulerControl is the slice of the scheduler the trigger surface needs.
type SchedulerControl interface {
	RunJob(ctx context.Context, name string) (any, error)
	Status() []scheduler.JobStatus
	Monitor() *scheduler.Monitor
	SyncDeadlines(ctx context.Context) error
}

// SeasonCache lets an operator drop the cached season after editing it.
type SeasonCache interface {
	Invalidate()
}

// Server is the internal operations surface: manual job triggers, job status
// and history, and season cache invalidation. It carries no authentication
// and must only be bound on a private interface.
type Server struct {
	sched SchedulerControl
	cache SeasonCache
}

// NewServer creates the admin surface over a scheduler and season cache.
func NewServer(sched SchedulerControl, cache SeasonCache) *Server {
	return &Server{sched: sched, cache: cache}
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/admin/jobs", s.handleListJobs).Methods(http.MethodGet)
	r.HandleFunc("/admin/jobs/history", s.handleJobHistory).Methods(http.MethodGet)
	r.HandleFunc("/admin/jobs/{name}/run", s.handleRunJob).Methods(http.MethodPost)
	r.HandleFunc("/admin/jobs/{name}/stats", s.handleJobStats).Methods(http.MethodGet)
	r.HandleFunc("/admin/seasons/cache/invalidate", s.handleInvalidateSeasonCache).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Warn().Err(err).Msg("failed to write health check response")
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs": s.sched.Status(),
	})
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	log.Info().Str("job", name).Msg("manual job trigger requested")

	result, err := s.sched.RunJob(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"job":     name,
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":     name,
		"success": true,
		"result":  result,
	})
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	writeJSON(w, http.StatusOK, map[string]any{
		"job":   name,
		"stats": s.sched.Monitor().GetJobStats(name),
	})
}

func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}
	jobName := r.URL.Query().Get("job")

	history := s.sched.Monitor().GetJobHistory(limit, jobName)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(history),
		"history": history,
	})
}

// handleInvalidateSeasonCache drops the cached season and synchronously
// re-syncs one-time timers so an edited deadline takes effect before the
// response is written.
func (s *Server) handleInvalidateSeasonCache(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate()
	if err := s.sched.SyncDeadlines(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"invalidated": true,
			"synced":      false,
			"error":       err.Error(),
		})
		return
	}
	log.Info().Msg("season cache invalidated and deadlines re-synced")
	writeJSON(w, http.StatusOK, map[string]any{
		"invalidated": true,
		"synced":      true,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to encode admin response")
	}
}
