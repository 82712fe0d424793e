package game

import "time"

// 语音频道中的玩家，由名单提供者（Discord）给出
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Score     int    `json:"score"`
}

// 一条匿名化的聊天消息，仅在一个回合内使用
// 按内容提供者约定，正文长度在 5 到 20 个词之间
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Timestamp time.Time `json:"timestamp"`
}

// 单个回合的结果，每回合只产生一次
// InitialGuess 和 FinalGuess 可能为空字符串（玩家没有做出选择）
type RoundResult struct {
	InitialGuess    string `json:"initial_guess,omitempty"`
	FinalGuess      string `json:"final_guess,omitempty"`
	CorrectAuthorID string `json:"correct_author_id"`
	PointsEarned    int    `json:"points_earned"`
}
