package app

import (
	"github.com/voxfield/minesweeper3d-server/internal/handlers"
	"github.com/voxfield/minesweeper3d-server/internal/repository"
)

func (a *App) loadRoutes() {
	game := handlers.NewGame(a.log, a.registry, repository.New(a.db), a.ws)
	auth := handlers.NewAuth(a.log, repository.New(a.db), a.cookies)

	a.router.HandleFunc("POST /game", game.Create)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("POST /game/{id}/open", game.Open)
	a.router.HandleFunc("POST /game/{id}/mark", game.Mark)
	a.router.HandleFunc("POST /game/{id}/forfeit", game.Forfeit)
	a.router.HandleFunc("DELETE /game/{id}", game.Remove)
	a.router.HandleFunc("/game/{id}/connect", game.ConnectWS)
	a.router.HandleFunc("GET /highscores", game.Highscores)

	a.router.HandleFunc("POST /register", auth.Register)
	a.router.HandleFunc("POST /login", auth.Login)
	a.router.HandleFunc("POST /logout", auth.Logout)
	a.router.HandleFunc("GET /status", auth.Status)
}
