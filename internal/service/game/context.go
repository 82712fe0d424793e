package game

import (
	"time"

	"go.uber.org/zap"
)

// RoundsFunc 向内容提供者索取一局游戏的消息序列
// 返回的序列长度可能小于 count（内容不足时），为 0 时开局失败
type RoundsFunc func(count int, authorIDs []string) ([]Message, error)

// ScoreApplier 决定回合结果的计分范围
// 当前的单客户端模型只累加本地玩家的得分，服务端权威计分
// 可以通过替换这个回调实现（见 LocalScoreApplier）
type ScoreApplier func(ctx *GameContext, result *RoundResult)

// LocalScoreApplier 只把得分累加到本地玩家头上
func LocalScoreApplier(ctx *GameContext, result *RoundResult) {
	if p, ok := ctx.Players[ctx.LocalPlayerID]; ok {
		p.Score += result.PointsEarned
	}
}

// 游戏配置，由会话服务从应用配置注入
type Settings struct {
	MinPlayers          int
	TotalRounds         int
	InitialPhaseSeconds int
	SummarySeconds      int
}

type GameContext struct {
	SessionID string
	GameStage string

	Settings Settings

	// 本地玩家是这台状态机服务的唯一客户端
	LocalPlayerID string
	HostID        string

	// 名单按提供者给出的加入顺序维护，第一个参与者是房主
	Players     map[string]*Player
	PlayerOrder []string

	RoundIndex    int
	RoundMessages []Message

	// 当前回合的状态，由回合阶段处理器独占维护
	RemainingSeconds int
	InitialGuess     string
	CurrentGuess     string
	Options          []Player
	LockedIn         bool

	LastResult *RoundResult

	FetchRounds RoundsFunc
	ApplyScore  ScoreApplier

	RespCh chan ResponseWrapper
	// 滴答和超时事件汇入的通道，与客户端请求一起被事件循环消费
	TmoCh chan RequestWrapper

	tickStop chan struct{}

	// 本地玩家退出后置位，事件循环据此结束
	Exited bool
}

// CurrentMessage 返回本回合的消息，回合索引越界时返回 nil
func (gc *GameContext) CurrentMessage() *Message {
	if gc.RoundIndex < 1 || gc.RoundIndex > len(gc.RoundMessages) {
		return nil
	}

	return &gc.RoundMessages[gc.RoundIndex-1]
}

// OrderedPlayers 按加入顺序返回名单快照
func (gc *GameContext) OrderedPlayers() []Player {
	players := make([]Player, 0, len(gc.PlayerOrder))

	for _, id := range gc.PlayerOrder {
		if p, ok := gc.Players[id]; ok {
			players = append(players, *p)
		}
	}

	return players
}

// StartTicker 启动每秒一次的滴答，事件带上阶段标记
// 让陈旧滴答在阶段退出后被直接丢弃
func (gc *GameContext) StartTicker(stage string) {
	gc.StopTicker()

	stop := make(chan struct{})
	gc.tickStop = stop

	tmoCh := gc.TmoCh

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return

			case <-ticker.C:
				select {
				case tmoCh <- RequestWrapper{
					ReqType:    REQ_TICK,
					NativeData: &TickRequest{Stage: stage},
				}:
				default:
					zap.L().Warn(
						"发送滴答事件失败：超时通道已满",
						zap.String("session_id", gc.SessionID),
					)
				}
			}
		}
	}()
}

// StopTicker 立即停止滴答调度
// 玩家锁定答案或阶段退出的瞬间必须调用，防止重复触发
func (gc *GameContext) StopTicker() {
	if gc.tickStop != nil {
		close(gc.tickStop)
		gc.tickStop = nil
	}
}

func (gc *GameContext) Push(resp ResponseWrapper) {
	select {
	case gc.RespCh <- resp:
		zap.L().Debug(
			"成功推送响应",
			zap.String("session_id", gc.SessionID),
			zap.String("resp_type", resp.RespType),
		)
	default:
		zap.L().Warn(
			"推送响应失败：客户端响应通道已满",
			zap.String("session_id", gc.SessionID),
			zap.String("resp_type", resp.RespType),
		)
	}
}

// PushSnapshot 在每次状态变化后向客户端推送完整快照
func (gc *GameContext) PushSnapshot() {
	notif := GameStateNotification{
		Stage:            gc.GameStage,
		RoundIndex:       gc.RoundIndex,
		TotalRounds:      gc.Settings.TotalRounds,
		RemainingSeconds: gc.RemainingSeconds,
		HostID:           gc.HostID,
		Players:          gc.OrderedPlayers(),
		Options:          gc.Options,
		CurrentGuess:     gc.CurrentGuess,
		LockedIn:         gc.LockedIn,
		LastResult:       gc.LastResult,
	}

	if msg := gc.CurrentMessage(); msg != nil &&
		(gc.GameStage == STAGE_INITIAL_GUESS ||
			gc.GameStage == STAGE_MULTIPLE_CHOICE ||
			gc.GameStage == STAGE_ROUND_SUMMARY) {
		view := &MessageView{
			ID:      msg.ID,
			Content: msg.Content,
		}

		// 消息日期是第二阶段的提示，第一阶段不下发
		if gc.GameStage != STAGE_INITIAL_GUESS {
			ts := msg.Timestamp
			view.Timestamp = &ts
		}

		notif.Message = view
	}

	if gc.GameStage == STAGE_MULTIPLE_CHOICE || gc.GameStage == STAGE_ROUND_SUMMARY {
		notif.InitialGuess = gc.InitialGuess
	}

	if gc.GameStage == STAGE_END_GAME {
		notif.Ranking = Ranking(gc.OrderedPlayers())
	}

	gc.Push(WrapResponse(RESP_GAME_STATE, notif))
}
