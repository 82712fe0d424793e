package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// InitLogger 按配置的级别构建全局日志器
// 整个后端经由 zap.L() / zap.S() 使用，不传递日志器实例
func InitLogger(logLevel string) {
	cfg := zap.NewDevelopmentConfig()

	switch logLevel {
	case "debug":
		cfg.Level.SetLevel(zap.DebugLevel)
	case "info":
		cfg.Level.SetLevel(zap.InfoLevel)
	case "warn":
		cfg.Level.SetLevel(zap.WarnLevel)
	case "error":
		cfg.Level.SetLevel(zap.ErrorLevel)
	default:
		// 未知级别按 info 处理
		cfg.Level.SetLevel(zap.InfoLevel)
	}

	lgr, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("构建 guess-who-said-it 日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)
}
