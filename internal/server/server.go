package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/voice-studio/internal/auth"
	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/export"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/voices"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Voices        *voices.Service
	Export        *export.Service
	Auth          auth.Authenticator
	Store         repository.Store
	WebhookSecret string
	Logger        *slog.Logger
}

// Server serves the voice creation HTTP API.
type Server struct {
	voices        *voices.Service
	export        *export.Service
	auth          auth.Authenticator
	store         repository.Store
	webhookSecret string
	logger        *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		voices:        opts.Voices,
		export:        opts.Export,
		auth:          opts.Auth,
		store:         opts.Store,
		webhookSecret: opts.WebhookSecret,
		logger:        opts.Logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog, s.recoverer)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/voices").Subrouter()
	api.HandleFunc("/transcription-events", s.handleTranscriptionEvent).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("/process-profile", s.handleProcessProfile).Methods(http.MethodPost)
	authed.HandleFunc("/jobs/{jobId}", s.handleGetJob).Methods(http.MethodGet)
	authed.HandleFunc("/{voiceId}/export", s.handleExportVoice).Methods(http.MethodGet)
	authed.HandleFunc("/{voiceId}", s.handleGetVoice).Methods(http.MethodGet)
	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), rid)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", common.RequestIDFromContext(r.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("http.panic", "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, failure{Success: false, Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r)
		if err != nil {
			s.logger.Warn("http.auth.failed", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Authentication failed"})
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
	})
}
