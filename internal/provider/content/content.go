package content

import (
	"guess-who-said-it-be/internal/service/game"
)

// Provider 是内容提供者：为一局游戏提供匿名化的消息序列
// 约定：
// 1. 返回的序列长度不超过 count，内容不足时可以更短
// 2. 每条消息的作者都在 authorIDs 里
// 3. 顺序随机，消息 ID 不重复
type Provider interface {
	Rounds(count int, authorIDs []string) ([]game.Message, error)
}
