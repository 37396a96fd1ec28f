package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/weinianhe/SaveGramps/internal/auth"
	"github.com/weinianhe/SaveGramps/internal/expr"
	"github.com/weinianhe/SaveGramps/internal/game"
	"github.com/weinianhe/SaveGramps/internal/potential"
	"github.com/weinianhe/SaveGramps/internal/question"
	"github.com/weinianhe/SaveGramps/internal/store"
)

// maxHandTokens bounds client-supplied hands; the potential search is exponential.
const maxHandTokens = 14

// newRoundReq is the payload for POST /round/new. All fields are optional:
//   - hand+answer: play exactly that target (testing, puzzles);
//   - seed: deal a reproducible random hand;
//   - neither: deal from the server's generator.
type newRoundReq struct {
	Seed   *int64     `json:"seed"`
	Hand   *game.Hand `json:"hand"`
	Answer *int       `json:"answer"`
}

// roundView is the JSON shape of a round returned by every round endpoint.
type roundView struct {
	RoundID    string         `json:"roundId"`
	Hand       game.Hand      `json:"hand"`
	Answer     int            `json:"answer"`
	Threshold  int            `json:"threshold"`
	Placed     game.Response  `json:"placed"`
	Expression string         `json:"expression"`
	Result     *int           `json:"result,omitempty"`
	Remaining  game.Hand      `json:"remaining"`
	State      game.State     `json:"state"`
	Terminated bool           `json:"terminated"`
	Condition  game.Condition `json:"condition"`
	Message    string         `json:"message,omitempty"`
}

func viewOf(rd *game.Round, term game.Termination) roundView {
	ex := rd.Expected()
	v := roundView{
		RoundID:    rd.ID(),
		Hand:       ex.Hand,
		Answer:     ex.Answer,
		Threshold:  rd.Threshold(),
		Placed:     rd.Response(),
		Expression: rd.Expression(),
		Remaining:  rd.Remaining(),
		State:      rd.State(),
		Terminated: term.Terminated,
		Condition:  term.Cond,
		Message:    term.Message,
	}
	if res, ok := rd.Result(); ok {
		v.Result = &res
	}
	return v
}

// checkHand rejects hands the core must never see: oversized hands and
// zero numbers alongside Divide.
func checkHand(h game.Hand) error {
	if h.Size() > maxHandTokens {
		return fmt.Errorf("hand too large (max %d tokens)", maxHandTokens)
	}
	if len(h.Numbers) == 0 {
		return errors.New("hand needs at least one number")
	}
	hasDivide := false
	for _, op := range h.Operators {
		if !op.Valid() {
			return expr.ErrUnknownOperator
		}
		if op == expr.Divide {
			hasDivide = true
		}
	}
	if hasDivide {
		for _, n := range h.Numbers {
			if n == 0 {
				return errors.New("zero cannot be dealt with divide")
			}
		}
	}
	return nil
}

// checkPlaced rejects placed tokens that the hand cannot supply. Together with
// checkHand this keeps zero divisors out of the placed expression too.
func checkPlaced(p game.Response, h game.Hand) error {
	for _, op := range p.Operators {
		if !op.Valid() {
			return expr.ErrUnknownOperator
		}
	}
	if len(potential.Remaining(h.Numbers, p.Numbers)) != len(h.Numbers)-len(p.Numbers) {
		return errors.New("placed numbers are not in the hand")
	}
	if len(potential.Remaining(h.Operators, p.Operators)) != len(h.Operators)-len(p.Operators) {
		return errors.New("placed operators are not in the hand")
	}
	return nil
}

// nextExpected picks the target for a new round according to req.
func (s *Server) nextExpected(ctx context.Context, req newRoundReq) (game.Expected, error) {
	switch {
	case req.Hand != nil:
		if req.Answer == nil {
			return game.Expected{}, errors.New("answer required with hand")
		}
		if err := checkHand(*req.Hand); err != nil {
			return game.Expected{}, err
		}
		return question.Fixed{Expected: game.Expected{Hand: *req.Hand, Answer: *req.Answer}}.Next(ctx)
	case req.Seed != nil:
		g, err := question.NewRandom(*req.Seed, s.cfg.Hand())
		if err != nil {
			return game.Expected{}, err
		}
		return g.Next(ctx)
	}
	return s.gen.Next(ctx)
}

// handleNewRound creates a round, stores it in the session store, and records
// an owner row (user_id or anonymous_id) for history/stats.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}
	ex, err := s.nextExpected(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rd := game.New(ex, s.roundOptions()...)
	// Evaluate the empty round so a hand that cannot reach its answer at all
	// (threshold 0) is reported right away.
	term := rd.CheckTermination()
	if err := s.store.Save(r.Context(), rd); err != nil {
		log.Error().Err(err).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	view := viewOf(rd, term)
	o := s.owner(w, r)
	s.recordNewRound(r.Context(), o, rd)
	if term.Terminated {
		s.recordFinish(r.Context(), o, view)
	}

	writeJSON(w, http.StatusOK, view)
}

// playReq is the payload for POST /round/play (and /daily/play).
// Exactly one of Number or Operator must be set.
type playReq struct {
	RoundID  string  `json:"roundId"`
	Number   *int    `json:"number"`
	Operator *string `json:"operator"`
}

// errBadMove wraps malformed play payloads.
var errBadMove = errors.New("bad move")

// play applies one token to a round under the store lock and evaluates it.
func (s *Server) play(ctx context.Context, req playReq) (roundView, game.Termination, error) {
	var (
		view roundView
		term game.Termination
	)
	if (req.Number == nil) == (req.Operator == nil) {
		return view, term, fmt.Errorf("%w: send exactly one of number or operator", errBadMove)
	}
	var op expr.Operator
	if req.Operator != nil {
		var err error
		if op, err = expr.ParseOperator(*req.Operator); err != nil {
			return view, term, fmt.Errorf("%w: %v", errBadMove, err)
		}
	}
	err := s.store.Update(ctx, req.RoundID, func(rd *game.Round) error {
		var err error
		if req.Number != nil {
			err = rd.AddNumber(*req.Number)
		} else {
			err = rd.AddOperator(op)
		}
		if err != nil {
			return err
		}
		term = rd.CheckTermination()
		if st := rd.LastSearch(); st.Nodes > 0 {
			log.Debug().Str("roundId", rd.ID()).Int("nodes", st.Nodes).Dur("dur", st.Duration).Msg("potential search")
		}
		view = viewOf(rd, term)
		return nil
	})
	return view, term, err
}

// writePlayError maps play errors to HTTP statuses.
func writePlayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrRoundFinished):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrTokenUnavailable), errors.Is(err, errBadMove):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("play")
		writeError(w, http.StatusInternalServerError, "play_failed")
	}
}

// handlePlay places one token and reports the round's termination status.
// When the round ends the rounds row is finalized and user stats are bumped.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if s.daily.owns(req.RoundID) {
		writeError(w, http.StatusConflict, "daily round: play it via /daily/play")
		return
	}
	view, term, err := s.play(r.Context(), req)
	if err != nil {
		writePlayError(w, err)
		return
	}

	o := s.owner(w, r)
	s.recordMove(r.Context(), o, view)
	if term.Terminated {
		s.recordFinish(r.Context(), o, view)
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetRound returns the current view of a round.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view roundView
	err := s.store.Update(r.Context(), id, func(rd *game.Round) error {
		view = viewOf(rd, rd.CheckTermination())
		return nil
	})
	if err != nil {
		writePlayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ------------------------------ persistence --------------------------------

// owner identifies who a round belongs to: a user or an anonymous cookie.
type owner struct {
	userID string
	anonID string
}

func (s *Server) owner(w http.ResponseWriter, r *http.Request) owner {
	if me := currentUser(r); me != nil {
		return owner{userID: me.ID}
	}
	return owner{anonID: s.ensureAnonID(w, r)}
}

// id is the user ID, or the anonymous ID for guests.
func (o owner) id() string {
	if o.userID != "" {
		return o.userID
	}
	return o.anonID
}

// clause returns the WHERE fragment and argument matching the owner.
func (o owner) clause() (string, any) {
	if o.userID != "" {
		return `user_id=?`, o.userID
	}
	return `anonymous_id=?`, o.anonID
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Server) recordNewRound(ctx context.Context, o owner, rd *game.Round) {
	ex := rd.Expected()
	hand, _ := json.Marshal(ex.Hand)
	_, err := s.db.ExecContext(ctx, `INSERT INTO rounds (id, user_id, anonymous_id, answer, hand, status, started_at)
	                     VALUES (?,?,?,?,?,?,?)`,
		rd.ID(), nullable(o.userID), nullable(o.anonID), ex.Answer, string(hand), string(rd.State()),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Warn().Err(err).Str("roundId", rd.ID()).Msg("insert round row")
	}
}

func (s *Server) recordMove(ctx context.Context, o owner, v roundView) {
	where, arg := o.clause()
	tokens := len(v.Placed.Numbers) + len(v.Placed.Operators)
	if _, err := s.db.ExecContext(ctx, `UPDATE rounds SET tokens=?, expression=? WHERE id=? AND `+where,
		tokens, v.Expression, v.RoundID, arg); err != nil {
		log.Warn().Err(err).Str("roundId", v.RoundID).Msg("update round")
	}
}

// recordFinish marks the round finished and, for signed-in players, bumps stats
// in the same transaction. Only the first call for a round has any effect.
func (s *Server) recordFinish(ctx context.Context, o owner, v roundView) {
	where, arg := o.clause()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE rounds SET status=?, condition=?, finished_at=? WHERE id=? AND finished_at IS NULL AND `+where,
		string(v.State), string(v.Condition), time.Now().UTC().Format(time.RFC3339), v.RoundID, arg)
	if err != nil {
		log.Warn().Err(err).Str("roundId", v.RoundID).Msg("finish round")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return
	}
	if o.userID != "" {
		if err := auth.BumpStats(ctx, tx, o.userID, v.State == game.StateWon); err != nil {
			log.Warn().Err(err).Str("user", o.userID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit finish")
		return
	}
	log.Info().Str("roundId", v.RoundID).Str("state", string(v.State)).Str("condition", string(v.Condition)).
		Str("expression", v.Expression).Msg("round finished")
}
