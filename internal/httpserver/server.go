// internal/httpserver/server.go
//
// HTTP server wiring for the SaveGramps backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, logging).
//   - Public endpoints: "/", "/health", POST /potential.
//   - Round endpoints (optional auth): POST /round/new, POST /round/play, GET /round/{id}.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /rounds/mine.
//
// Notes:
//   - Rounds in play live in the session store; every mutation goes through
//     store.Update so a round is never touched by two requests at once.
//   - Finished rounds and player stats are recorded in SQLite best-effort:
//     a failed write is logged and does not fail the move.
//   - The evaluator panics on invariant violations (unknown operator, zero
//     divisor); the Recoverer middleware turns those into 500s.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/weinianhe/SaveGramps/internal/auth"
	"github.com/weinianhe/SaveGramps/internal/config"
	"github.com/weinianhe/SaveGramps/internal/expr"
	"github.com/weinianhe/SaveGramps/internal/game"
	"github.com/weinianhe/SaveGramps/internal/potential"
	"github.com/weinianhe/SaveGramps/internal/question"
	"github.com/weinianhe/SaveGramps/internal/store"
)

// Server bundles router, round session store, DB handle and auth helpers.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	users   *auth.Users
	signer  auth.Signer
	cookies auth.Cookies
	gen     question.Generator
	daily   *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, db *sql.DB) (*Server, error) {
	gen, err := question.NewRandom(time.Now().UnixNano(), cfg.Hand())
	if err != nil {
		return nil, err
	}
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   st,
		db:      db,
		users:   auth.NewUsers(db),
		signer:  auth.Signer{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL()},
		cookies: auth.Cookies{Name: cfg.CookieName, Secure: cfg.Production()},
		gen:     gen,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"savegramps","endpoints":["/health","POST /round/new","POST /round/play","GET /round/{id}","POST /potential","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Stateless feasibility check
	s.r.Post("/potential", s.handlePotential)

	// Rounds: optional auth (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/round/new", s.handleNewRound)
	s.r.With(s.withOptionalAuth()).Post("/round/play", s.handlePlay)
	s.r.With(s.withOptionalAuth()).Get("/round/{id}", s.handleGetRound)

	// Daily Challenge: optional auth (guests can play; result recorded on finish)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s, nil
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// roundOptions applies the configured threshold and search strategy.
func (s *Server) roundOptions() []game.Option {
	opts := []game.Option{game.WithThreshold(s.cfg.PotentialThreshold)}
	if s.cfg.PotentialParallel {
		opts = append(opts, game.WithSearch(parallelSearch))
	}
	return opts
}

// parallelSearch adapts SearchParallel to game.SearchFunc.
// Background is never cancelled, so SearchParallel's error is always nil here.
func parallelSearch(pn []int, po []expr.Operator, hn []int, ho []expr.Operator, target int) (bool, potential.Stats) {
	ok, st, _ := potential.SearchParallel(context.Background(), pn, po, hn, ho, target)
	return ok, st
}

// ------------------------------ potential ----------------------------------

type potentialReq struct {
	Placed game.Response `json:"placed"`
	Hand   game.Hand     `json:"hand"`
	Answer int           `json:"answer"`
}

type potentialRes struct {
	Potential bool `json:"potential"`
	Nodes     int  `json:"nodes"`
}

// handlePotential answers whether placed tokens can still reach answer with hand.
func (s *Server) handlePotential(w http.ResponseWriter, r *http.Request) {
	var req potentialReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := checkHand(req.Hand); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkPlaced(req.Placed, req.Hand); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ok, st, err := potential.SearchParallel(r.Context(),
		req.Placed.Numbers, req.Placed.Operators, req.Hand.Numbers, req.Hand.Operators, req.Answer)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "search_cancelled")
		return
	}
	log.Debug().Int("nodes", st.Nodes).Dur("dur", st.Duration).Bool("potential", ok).Msg("potential search")
	writeJSON(w, http.StatusOK, potentialRes{Potential: ok, Nodes: st.Nodes})
}
