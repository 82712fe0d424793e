package state

import (
	"guess-who-said-it-be/internal/config"
	"guess-who-said-it-be/internal/provider/content"
	"guess-who-said-it-be/internal/provider/roster"
	"guess-who-said-it-be/internal/service"
)

// AppState 在 main 里组装一次，显式传递给需要的组件
// 不使用包级的共享单例
type AppState struct {
	Cfg        *config.AppConfig
	SessionSvc *service.SessionService
	Roster     roster.Provider
	Content    content.Provider
}

func NewAppState(
	cfg *config.AppConfig,
	sessionSvc *service.SessionService,
	rosterProvider roster.Provider,
	contentProvider content.Provider,
) *AppState {
	return &AppState{
		Cfg:        cfg,
		SessionSvc: sessionSvc,
		Roster:     rosterProvider,
		Content:    contentProvider,
	}
}
