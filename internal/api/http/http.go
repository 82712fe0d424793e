package http

import (
	"fmt"

	"guess-who-said-it-be/internal/api/http/websocket"
	"guess-who-said-it-be/internal/state"

	"github.com/kataras/iris/v12"
)

func RunServer(appState *state.AppState) {
	app := iris.Default()

	app.HandleDir(
		"/",
		iris.Dir("./guess-who-said-it-fe"),
		iris.DirOptions{
			IndexName: "index.html",
			SPA:       true,
			Compress:  true,
		},
	)

	// Discord 活动客户端的 OAuth 令牌中继
	app.Post("/api/token", ExchangeToken(appState))

	api := app.Party("/api/v1")

	api.Post("/sessions/create", CreateSession(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	app.Listen(addr)
}
