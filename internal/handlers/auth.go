package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/voxfield/minesweeper3d-server/internal/config"
	"github.com/voxfield/minesweeper3d-server/internal/middleware"
	"github.com/voxfield/minesweeper3d-server/internal/repository"
)

type Auth struct {
	log     *logrus.Logger
	repo    *repository.Queries
	cookies *config.Cookies
}

func NewAuth(
	log *logrus.Logger,
	repo *repository.Queries,
	cookies *config.Cookies,
) *Auth {
	return &Auth{
		log:     log,
		repo:    repo,
		cookies: cookies,
	}
}

var (
	errBadAuthBody     = fmt.Errorf("request body must contain url-encoded username and password")
	errPasswordTooLong = fmt.Errorf("password too long")
	errUsernameTaken   = fmt.Errorf("username taken")
	errBadCredentials  = fmt.Errorf("invalid username or password")
)

func parseCredentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", errBadAuthBody
	}
	username = r.FormValue("username")
	password = r.FormValue("password")
	if username == "" || password == "" {
		return "", "", errBadAuthBody
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return "", "", errPasswordTooLong
	}
	return username, password, nil
}

func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, a.log, wrapError(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to hash password")
		return
	}

	player, err := a.repo.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		w.WriteHeader(http.StatusConflict)
		sendJSONOrLog(w, a.log, wrapError(errUsernameTaken))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to insert player")
		return
	}

	if err := a.cookies.Refresh(
		w, config.NewPlayerClaims(player.PlayerID, player.Username),
	); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to sign claims")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, a.log, wrapError(err))
		return
	}

	player, err := a.repo.FetchPlayer(r.Context(), username)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.log, wrapError(errBadCredentials))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to fetch player")
		return
	}

	err = bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.log, wrapError(errBadCredentials))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("bcrypt compare error")
		return
	}

	if err := a.cookies.Refresh(
		w, config.NewPlayerClaims(player.PlayerID, player.Username),
	); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to sign claims")
	}
}

func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
}

type playerInfo struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
}

type authStatus struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *playerInfo `json:"player,omitempty"`
}

// Status reports who the cookies say the caller is, refreshing their
// lifetime on the way out.
func (a *Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.log, authStatus{LoggedIn: false})
		return
	}

	if err := a.cookies.Refresh(
		w, config.NewPlayerClaims(claims.PlayerID, claims.Username),
	); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to refresh claims")
		return
	}
	sendJSONOrLog(w, a.log, authStatus{
		LoggedIn: true,
		Player:   &playerInfo{claims.PlayerID, claims.Username},
	})
}
