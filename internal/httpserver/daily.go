// internal/httpserver/daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's round (creates or reuses the session)
//   - POST /daily/play        → place a token in today's round
//   - GET  /daily/leaderboard → fastest winners for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same hand on a given date: the generator is seeded from
// HMAC(DAILY_SALT, date). Each player may finish one daily round per date
// (enforced by the daily_results UNIQUE constraint + the in-memory session).

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/weinianhe/SaveGramps/internal/daily"
	"github.com/weinianhe/SaveGramps/internal/game"
	"github.com/weinianhe/SaveGramps/internal/question"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	now      func() time.Time
	sessions map[string]*dailySession // active sessions keyed by userID|date
	rounds   map[string]bool          // IDs of every round dealt by /daily/new
	mu       sync.Mutex               // guards sessions and rounds
}

// dailySession holds transient state for an in-progress daily round.
type dailySession struct {
	RoundID  string
	UserID   string
	Date     string
	Start    time.Time
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		now:      time.Now,
		sessions: make(map[string]*dailySession),
		rounds:   make(map[string]bool),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Post("/play", s.daily.handlePlay)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

// today returns today's date key and the matching daily target.
func (d *dailyServer) today(r *http.Request) (string, game.Expected, error) {
	now := d.now().UTC()
	gen, err := question.NewRandom(daily.Seed(now, d.salt), d.srv.cfg.Hand())
	if err != nil {
		return "", game.Expected{}, err
	}
	ex, err := gen.Next(r.Context())
	return daily.DateKey(now), ex, err
}

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	Round  *roundView `json:"round,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
//   - If the player already has a result for today → Played=true, no round.
//   - Otherwise create/reuse the session's round and return it.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	o := d.srv.owner(w, r)
	uid := o.id()
	date, ex, err := d.today(r)
	if err != nil {
		log.Error().Err(err).Msg("daily target")
		writeError(w, http.StatusInternalServerError, "daily_unavailable")
		return
	}

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	finished := ok && sess.Finished
	d.mu.Unlock()
	if ok {
		var view roundView
		err := d.srv.store.Update(r.Context(), sess.RoundID, func(rd *game.Round) error {
			view = viewOf(rd, rd.CheckTermination())
			return nil
		})
		if err == nil {
			writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: finished, Round: &view})
			return
		}
	}

	rd := game.New(ex, d.srv.roundOptions()...)
	term := rd.CheckTermination()
	if err := d.srv.store.Save(r.Context(), rd); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	sess = &dailySession{RoundID: rd.ID(), UserID: uid, Date: date, Start: d.now()}
	d.mu.Lock()
	d.sessions[key] = sess
	d.rounds[rd.ID()] = true
	d.mu.Unlock()

	view := viewOf(rd, term)
	d.srv.recordNewRound(r.Context(), o, rd)
	writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Round: &view})
}

// owns reports whether id is a daily round. Daily rounds are only played
// through /daily/play so their result is recorded.
func (d *dailyServer) owns(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rounds[id]
}

// handlePlay places a token in today's round.
//   - Rejects rounds that are not the player's session for today.
//   - On termination (won or lost) the result is recorded once.
func (d *dailyServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	o := d.srv.owner(w, r)
	uid := o.id()
	var req playReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	date := daily.DateKey(d.now())

	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.RoundID != req.RoundID {
		writeError(w, http.StatusConflict, "no session")
		return
	}

	view, term, err := d.srv.play(r.Context(), req)
	if err != nil {
		writePlayError(w, err)
		return
	}
	d.srv.recordMove(r.Context(), o, view)

	if term.Terminated {
		d.mu.Lock()
		first := !sess.Finished
		sess.Finished = true
		d.mu.Unlock()
		if first {
			d.srv.recordFinish(r.Context(), o, view)
			err := d.store.InsertResult(r.Context(), daily.Result{
				UserID:    uid,
				Date:      date,
				RoundID:   view.RoundID,
				Won:       view.State == game.StateWon,
				Tokens:    len(view.Placed.Numbers) + len(view.Placed.Operators),
				ElapsedMs: int(d.now().Sub(sess.Start).Milliseconds()),
			})
			if err != nil {
				log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
			}
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
