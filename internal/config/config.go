package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type DiscordConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BotToken     string `mapstructure:"bot_token"`
	GuildID      string `mapstructure:"guild_id"`
	ChannelID    string `mapstructure:"channel_id"`
}

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 开发模式：使用模拟名单和更低的人数门槛，便于单人调试
	DevMode bool `mapstructure:"dev_mode"`

	MinPlayers          int `mapstructure:"min_players"`
	TotalRounds         int `mapstructure:"total_rounds"`
	InitialPhaseSeconds int `mapstructure:"initial_phase_seconds"`
	SummarySeconds      int `mapstructure:"summary_seconds"`

	Discord DiscordConfig `mapstructure:"discord"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	// Discord 凭据放在 .env 里，不进配置文件
	if err := godotenv.Load(); err != nil {
		zap.S().Debugf("未加载 .env 文件：%v", err)
	}

	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("dev_mode", false)
	v.SetDefault("min_players", 3)
	v.SetDefault("total_rounds", 10)
	v.SetDefault("initial_phase_seconds", 15)
	v.SetDefault("summary_seconds", 5)

	v.BindEnv("discord.client_id", "DISCORD_CLIENT_ID")
	v.BindEnv("discord.client_secret", "DISCORD_CLIENT_SECRET")
	v.BindEnv("discord.bot_token", "DISCORD_BOT_TOKEN")
	v.BindEnv("discord.guild_id", "DISCORD_GUILD_ID")
	v.BindEnv("discord.channel_id", "DISCORD_CHANNEL_ID")

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	// 开发模式下降低人数门槛，允许单人开局
	if config.DevMode && config.MinPlayers > 1 {
		config.MinPlayers = 1
	}

	return &config
}
