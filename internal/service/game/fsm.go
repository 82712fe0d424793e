package game

import (
	"time"

	"go.uber.org/zap"
)

// GameMachine 是游戏状态机，负责管理游戏状态和事件循环
// 每台状态机服务一个已连接的客户端，回合和计分逻辑
// 在各客户端之间相互独立（没有服务端仲裁）
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	// 这是客户端的全部请求（意图、名单更新）汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知游戏状态机退出事件循环
	doneCh chan struct{}

	createdAt time.Time
}

// MachineParams 聚合创建一台状态机所需的依赖
type MachineParams struct {
	SessionID     string
	LocalPlayerID string
	HostID        string
	Roster        []Player
	Settings      Settings
	FetchRounds   RoundsFunc
	ApplyScore    ScoreApplier
}

func NewGameMachine(params MachineParams, doneCh chan struct{}) *GameMachine {
	players := make(map[string]*Player, len(params.Roster))
	order := make([]string, 0, len(params.Roster))

	for _, p := range params.Roster {
		joined := p
		players[p.ID] = &joined
		order = append(order, p.ID)
	}

	applyScore := params.ApplyScore
	if applyScore == nil {
		applyScore = LocalScoreApplier
	}

	ctx := &GameContext{
		SessionID:     params.SessionID,
		LocalPlayerID: params.LocalPlayerID,
		HostID:        params.HostID,
		Players:       players,
		PlayerOrder:   order,
		Settings:      params.Settings,
		FetchRounds:   params.FetchRounds,
		ApplyScore:    applyScore,
		TmoCh:         make(chan RequestWrapper, 64),
	}

	reqCh := make(chan RequestWrapper, 64)

	gm := &GameMachine{
		ctx:       ctx,
		handler:   NewLobbyStageHandler(),
		reqCh:     reqCh,
		doneCh:    doneCh,
		createdAt: time.Now(),
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextStage string) {
		gm.ctx.GameStage = nextStage
	}

	gm.handler.SetOnSwitch(onSwitch)

	return gm
}

func (gm *GameMachine) GetReqCh() chan RequestWrapper {
	return gm.reqCh
}

func (gm *GameMachine) Start() {
	// 执行初始 handler 的 OnEnter
	gm.handler.OnEnter(gm.ctx)

	// 进入事件循环
	for {
		// 从请求通道或滴答通道接收事件
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
			zap.L().Debug(
				"接收到客户端请求",
				zap.String("session_id", gm.ctx.SessionID),
				zap.String("request_type", req.ReqType),
			)
		case req = <-gm.ctx.TmoCh:
			zap.L().Debug(
				"接收到滴答事件",
				zap.String("session_id", gm.ctx.SessionID),
			)
		case <-gm.doneCh:
			zap.L().Info(
				"收到退出信号，结束游戏状态机",
				zap.String("session_id", gm.ctx.SessionID),
			)

			gm.ctx.StopTicker()

			return
		}

		// 处理请求；阶段处理器返回的错误作为阻塞性错误推给客户端
		err := gm.handler.OnHandle(gm.ctx, req)
		if err != nil {
			zap.L().Debug(
				"处理请求失败",
				zap.Error(err),
				zap.String("stage", gm.handler.Stage()),
				zap.String("request_type", req.ReqType),
			)

			gm.ctx.Push(WrapErrResponse(err.Error()))
		}

		// 本地玩家已退出，协程结束，释放资源
		if gm.ctx.Exited {
			break
		}

		// 检查状态是否发生变化
		if gm.ctx.GameStage != gm.handler.Stage() {
			// 状态发生变化，执行切换
			gm.switchStage()

			// 执行新阶段的 OnEnter
			gm.handler.OnEnter(gm.ctx)
		}
	}

	zap.L().Info(
		"游戏状态机已结束",
		zap.String("session_id", gm.ctx.SessionID),
	)
}

func (gm *GameMachine) switchStage() {
	// 执行当前 handler 的 OnExit
	gm.handler.OnExit(gm.ctx)

	// 根据新状态创建对应的 handler
	var newHandler StageHandler

	switch gm.ctx.GameStage {
	case STAGE_LOBBY:
		newHandler = NewLobbyStageHandler()
	case STAGE_INITIAL_GUESS:
		newHandler = NewInitialGuessStageHandler()
	case STAGE_MULTIPLE_CHOICE:
		newHandler = NewMultipleChoiceStageHandler()
	case STAGE_ROUND_SUMMARY:
		newHandler = NewRoundSummaryStageHandler()
	case STAGE_END_GAME:
		newHandler = NewEndGameStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", gm.ctx.GameStage),
		)
		return
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextStage string) {
		gm.ctx.GameStage = nextStage
	}

	newHandler.SetOnSwitch(onSwitch)

	// 更新当前 handler
	gm.handler = newHandler
}

// IsFinished 在本地玩家退出后为真，清理协程据此回收会话
func (gm *GameMachine) IsFinished() bool {
	return gm.ctx.Exited
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}
