package game

import "time"

type JoinGameRequest struct {
	SessionID  string               `json:"session_id"`
	PlayerID   string               `json:"player_id"`
	PlayerName string               `json:"player_name"`
	RespCh     chan ResponseWrapper `json:"-"`
}

type JoinGameResponse struct {
	SessionID string   `json:"session_id"`
	Stage     string   `json:"stage"`
	Joiner    Player   `json:"joiner"`
	Players   []Player `json:"players"`
	HostID    string   `json:"host_id"`
}

type ExitGameRequest struct {
	PlayerID string               `json:"player_id"`
	RespCh   chan ResponseWrapper `json:"-"`
}

type ExitGameResponse struct {
	LeftPlayerID   string `json:"left_player_id"`
	LeftPlayerName string `json:"left_player_name"`
}

type StartGameRequest struct {
	StartPlayerID string `json:"start_player_id"`
}

// 玩家在回合中点选某个候选人，未锁定前可以随意更改
type SelectCandidateRequest struct {
	CandidateID string `json:"candidate_id"`
}

type LockInRequest struct{}

type ContinueRequest struct{}

type PlayAgainRequest struct{}

// 每秒一次的滴答事件，Stage 用于丢弃已退出阶段的陈旧滴答
type TickRequest struct {
	Stage string `json:"stage"`
}

// 名单提供者推送的参与者快照，得分字段由状态机自行维护
type RosterUpdateRequest struct {
	Participants []Player `json:"participants"`
	HostID       string   `json:"host_id"`
}

// 推送给客户端的消息视图
// 日期只在提示揭晓（MultipleChoice 阶段）之后返回
type MessageView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type RankEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
	IsWinner bool   `json:"is_winner"`
}

// 每次状态变化后推送的完整游戏快照
type GameStateNotification struct {
	Stage            string       `json:"stage"`
	RoundIndex       int          `json:"round_index"`
	TotalRounds      int          `json:"total_rounds"`
	RemainingSeconds int          `json:"remaining_seconds"`
	HostID           string       `json:"host_id"`
	Players          []Player     `json:"players"`
	Message          *MessageView `json:"message,omitempty"`
	Options          []Player     `json:"options,omitempty"`
	CurrentGuess     string       `json:"current_guess,omitempty"`
	InitialGuess     string       `json:"initial_guess,omitempty"`
	LockedIn         bool         `json:"locked_in"`
	LastResult       *RoundResult `json:"last_result,omitempty"`
	Ranking          []RankEntry  `json:"ranking,omitempty"`
}
