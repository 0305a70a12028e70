package handlers

import (
	"context"
	"hash/maphash"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voxfield/minesweeper3d-server/internal/config"
	"github.com/voxfield/minesweeper3d-server/internal/field"
	"github.com/voxfield/minesweeper3d-server/internal/middleware"
	"github.com/voxfield/minesweeper3d-server/internal/repository"
	"github.com/voxfield/minesweeper3d-server/internal/session"
)

type Game struct {
	log      *logrus.Logger
	registry *session.Registry
	repo     *repository.Queries
	ws       *config.WebSocket
}

func NewGame(
	log *logrus.Logger,
	registry *session.Registry,
	repo *repository.Queries,
	ws *config.WebSocket,
) *Game {
	return &Game{
		log:      log,
		registry: registry,
		repo:     repo,
		ws:       ws,
	}
}

// newRand seeds one PCG per session, so placement draws never race
// across sessions.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// Create starts a session. When the query carries x/y/z, the first
// open is resolved in the same request (the common client flow: the
// session only becomes interesting once its first cell is opened).
func (g *Game) Create(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params, err := ParseGameParams(query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.log, wrapError(err))
		return
	}

	s, err := session.New(params, newRand())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.log, wrapError(err))
		return
	}

	var events []session.Event
	if query.Has("x") || query.Has("y") || query.Has("z") {
		pos, err := ParsePosition(query)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, g.log, wrapError(err))
			return
		}
		events, err = s.Open(pos)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, g.log, wrapError(err))
			return
		}
	}

	h := g.registry.Put(s)
	g.log.WithFields(logrus.Fields{
		"session_id": h.ID,
		"params":     params,
	}).Info("session created")

	g.recordIfEnded(r, h.ID, s, events)
	sendJSONOrLog(w, g.log, NewGameSessionDTO(h.ID, s, events))
}

func (g *Game) Fetch(w http.ResponseWriter, r *http.Request) {
	h, ok := g.registry.Get(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = h.Do(func(s *session.Session) error {
		sendJSONOrLog(w, g.log, NewGameSessionDTO(h.ID, s, nil))
		return nil
	})
}

// command runs one open/mark command against a live session and
// writes the resulting DTO. Rejected commands are 409able no-ops.
func (g *Game) command(
	w http.ResponseWriter, r *http.Request,
	run func(*session.Session, field.Index) ([]session.Event, error),
) {
	pos, err := ParsePosition(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.log, wrapError(err))
		return
	}

	h, ok := g.registry.Get(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	_ = h.Do(func(s *session.Session) error {
		events, err := run(s, pos)
		if err != nil {
			w.WriteHeader(http.StatusConflict)
			sendJSONOrLog(w, g.log, wrapError(err))
			return nil
		}
		g.recordIfEnded(r, h.ID, s, events)
		sendJSONOrLog(w, g.log, NewGameSessionDTO(h.ID, s, events))
		return nil
	})
}

func (g *Game) Open(w http.ResponseWriter, r *http.Request) {
	g.command(w, r, func(s *session.Session, pos field.Index) ([]session.Event, error) {
		return s.Open(pos)
	})
}

func (g *Game) Mark(w http.ResponseWriter, r *http.Request) {
	g.command(w, r, func(s *session.Session, pos field.Index) ([]session.Event, error) {
		return s.ToggleMark(pos)
	})
}

func (g *Game) Forfeit(w http.ResponseWriter, r *http.Request) {
	h, ok := g.registry.Get(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = h.Do(func(s *session.Session) error {
		events := s.Forfeit()
		g.recordIfEnded(r, h.ID, s, events)
		sendJSONOrLog(w, g.log, NewGameSessionDTO(h.ID, s, events))
		return nil
	})
}

// Remove drops a live session the client no longer wants.
func (g *Game) Remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := g.registry.Get(id); !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	g.registry.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (g *Game) Highscores(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter repository.HighscoreFilter
	if query.Has("username") {
		username := query.Get("username")
		filter.Username = &username
	}
	if query.Has("width") {
		params, err := ParseGameParams(query)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, g.log, wrapError(err))
			return
		}
		filter.Params = &params
	}

	highscores, err := g.repo.GetHighscores(r.Context(), filter)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.log.WithError(err).Error("unable to fetch highscores")
		return
	}
	sendJSONOrLog(w, g.log, highscores)
}

func endedIn(events []session.Event) bool {
	for _, e := range events {
		if e.Type == session.EventSessionEnded {
			return true
		}
	}
	return false
}

// recordIfEnded stores the round outcome once, when the command that
// produced events finished the session. Recording failures are
// logged, not surfaced: the round itself already ended for the
// player.
func (g *Game) recordIfEnded(r *http.Request, id string, s *session.Session, events []session.Event) {
	if !s.Status().Over() || !endedIn(events) {
		return
	}

	var playerID *int64
	if claims, ok := middleware.PlayerClaims(r.Context()); ok {
		playerID = &claims.PlayerID
	}

	// The outcome is server state, not response state: the write must
	// go through even when the client hangs up as the round ends.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()

	_, err := g.repo.CreateRoundResult(ctx, repository.CreateRoundResultParams{
		SessionID: id,
		PlayerID:  playerID,
		Params:    s.Params(),
		Won:       s.Status() == session.StatusVictory,
		StartedAt: s.StartedAt(),
		EndedAt:   s.EndedAt(),
	})
	if err != nil {
		g.log.WithError(err).WithField("session_id", id).Error("unable to record round result")
		return
	}
	g.log.WithFields(logrus.Fields{
		"session_id": id,
		"status":     s.Status().String(),
		"playtime":   s.Playtime().String(),
	}).Info("round finished")
}
