package main

import (
	"guess-who-said-it-be/internal/api/http"
	"guess-who-said-it-be/internal/config"
	"guess-who-said-it-be/internal/logger"
	"guess-who-said-it-be/internal/provider/content"
	"guess-who-said-it-be/internal/provider/roster"
	"guess-who-said-it-be/internal/service"
	"guess-who-said-it-be/internal/service/game"
	"guess-who-said-it-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 组装名单提供者：开发模式用模拟名单，否则接 Discord
	var rosterProvider roster.Provider
	if cfg.DevMode {
		rosterProvider = roster.NewMockProvider()
	} else {
		rosterProvider = roster.NewDiscordProvider(
			cfg.Discord.BotToken,
			cfg.Discord.GuildID,
			cfg.Discord.ChannelID,
		)
	}
	defer rosterProvider.Close()

	contentProvider := content.NewMockProvider()

	sessionSvc := service.NewSessionService(
		rosterProvider,
		contentProvider,
		game.Settings{
			MinPlayers:          cfg.MinPlayers,
			TotalRounds:         cfg.TotalRounds,
			InitialPhaseSeconds: cfg.InitialPhaseSeconds,
			SummarySeconds:      cfg.SummarySeconds,
		},
	)
	defer sessionSvc.Close()

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		sessionSvc,
		rosterProvider,
		contentProvider,
	)

	// 启动服务器
	http.RunServer(appState)
}
