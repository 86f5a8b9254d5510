package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/secmon-lab/leaktrawl/pkg/utils/errutil"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"github.com/secmon-lab/leaktrawl/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	r := chi.NewRouter()
	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/run", s.runHandler)
		r.Post("/eval", s.evalHandler)
		r.Get("/groups", s.groupsHandler)
		r.Get("/groups/{group}/entries", s.groupEntriesHandler)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, map[string]string{"status": "ok"})
}

// runHandler starts one agent run against the requested site and blocks
// until it finishes. A run already in progress yields 409 rather than
// queueing: the caller decides whether to retry. Beyond the start URL the
// request may override headless mode, the model and the step cap for this
// run only; absent fields keep the server's configured defaults.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartURL string `json:"start_url"`
		URL      string `json:"url"`
		Headless *bool  `json:"headless"`
		Model    string `json:"model"`
		MaxSteps int    `json:"max_steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid run request"), http.StatusBadRequest)
		return
	}
	startURL := req.StartURL
	if startURL == "" {
		startURL = req.URL
	}
	if startURL == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("start_url is required"), http.StatusBadRequest)
		return
	}
	if req.MaxSteps < 0 {
		errutil.HandleHTTP(r.Context(), w, goerr.New("max_steps must be positive"), http.StatusBadRequest)
		return
	}

	report, err := s.uc.Agent.Run(r.Context(), usecase.RunInput{
		URL:      startURL,
		Headless: req.Headless,
		Model:    req.Model,
		MaxSteps: req.MaxSteps,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrRunInProgress) {
			status = http.StatusConflict
		}
		errutil.HandleHTTP(r.Context(), w, err, status)
		return
	}

	respondJSON(w, r, report)
}

// evalHandler scores the stored corpus against a ground-truth dataset
// posted as a JSON array of entries
func (s *Server) evalHandler(w http.ResponseWriter, r *http.Request) {
	var truth []*model.Entry
	if err := json.NewDecoder(r.Body).Decode(&truth); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid ground-truth dataset"), http.StatusBadRequest)
		return
	}

	report, err := s.uc.Eval.Evaluate(r.Context(), truth)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, r, report)
}

func (s *Server) groupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := s.uc.Corpus.Groups(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, r, map[string][]string{"groups": groups})
}

func (s *Server) groupEntriesHandler(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	entries, err := s.uc.Corpus.EntriesByGroup(r.Context(), group)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, r, map[string]any{"group": group, "entries": entries})
}

func respondJSON(w http.ResponseWriter, r *http.Request, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, data)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
