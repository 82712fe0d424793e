package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 游戏总体分为 5 个阶段，分别是：
// 1. 大厅阶段（Lobby）：等待语音频道凑齐人数，房主开始游戏
// 2. 初猜阶段（InitialGuess）：展示匿名消息，玩家从全部候选人中猜测作者
// 3. 多选阶段（MultipleChoice）：揭晓消息日期作为提示，玩家在
//    正确作者与干扰项组成的选项中确认或更改猜测
// 4. 回合小结阶段（RoundSummary）：公布本回合结果和得分
// 5. 终局阶段（EndGame）：展示排行榜，可以重新开始
const (
	STAGE_LOBBY           = "Lobby"
	STAGE_INITIAL_GUESS   = "InitialGuess"
	STAGE_MULTIPLE_CHOICE = "MultipleChoice"
	STAGE_ROUND_SUMMARY   = "RoundSummary"
	STAGE_END_GAME        = "EndGame"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// 大厅阶段是整个游戏最初始的阶段
type lobbyStageHandler struct {
	onSwitch func(string)
}

func NewLobbyStageHandler() *lobbyStageHandler {
	return &lobbyStageHandler{}
}

func (lsh *lobbyStageHandler) Stage() string {
	return STAGE_LOBBY
}

func (lsh *lobbyStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_LOBBY

	// 清理上一局留下的回合数据，得分保留到下一次开局才清零
	ctx.RoundIndex = 1
	ctx.RoundMessages = nil
	ctx.LastResult = nil

	ctx.RemainingSeconds = 0
	ctx.InitialGuess = ""
	ctx.CurrentGuess = ""
	ctx.Options = nil
	ctx.LockedIn = false

	ctx.PushSnapshot()
}

func (lsh *lobbyStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		return onPlayerJoin(ctx, jreq)
	}

	if rreq := TryUnwrapRosterUpdateRequest(req); rreq != nil {
		onRosterUpdate(ctx, rreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq.PlayerID, ereq.RespCh)
		return nil
	}

	if sreq := TryUnwrapStartGameRequest(req); sreq != nil {
		if ctx.LocalPlayerID == "" {
			return errors.New("无法开始游戏：无法识别当前玩家")
		}

		if sreq.StartPlayerID != ctx.HostID || ctx.LocalPlayerID != ctx.HostID {
			return errors.New("无法开始游戏：只有房主可以开始游戏")
		}

		// 检查玩家数量（全部语音频道参与者都是候选作者）
		if len(ctx.Players) < ctx.Settings.MinPlayers {
			return fmt.Errorf(
				"无法开始游戏：玩家数量不足 %d 人",
				ctx.Settings.MinPlayers,
			)
		}

		authorIDs := make([]string, 0, len(ctx.PlayerOrder))
		authorIDs = append(authorIDs, ctx.PlayerOrder...)

		// 先取内容再改状态，开局失败时会话保持原样
		messages, err := ctx.FetchRounds(ctx.Settings.TotalRounds, authorIDs)
		if err != nil {
			return fmt.Errorf("无法开始游戏：获取消息失败: %w", err)
		}

		if len(messages) == 0 {
			return errors.New("无法开始游戏：没有可用的消息内容")
		}

		if len(messages) < ctx.Settings.TotalRounds {
			zap.L().Info(
				"可用消息不足，缩短回合数",
				zap.String("session_id", ctx.SessionID),
				zap.Int("requested", ctx.Settings.TotalRounds),
				zap.Int("available", len(messages)),
			)
		}

		// 开局时清零得分和残留的猜测
		for _, p := range ctx.Players {
			p.Score = 0
		}

		ctx.RoundMessages = messages
		ctx.RoundIndex = 1
		ctx.LastResult = nil
		ctx.InitialGuess = ""
		ctx.CurrentGuess = ""

		lsh.onSwitch(STAGE_INITIAL_GUESS)

		return nil
	}

	return errors.New("无法处理请求：当前阶段不支持该请求类型")
}

func (lsh *lobbyStageHandler) OnExit(ctx *GameContext) {
}

func (lsh *lobbyStageHandler) SetOnSwitch(onSwitch func(string)) {
	lsh.onSwitch = onSwitch
}

// 初猜阶段处理器：回合的第一阶段，候选人是除自己以外的全部玩家
type initialGuessStageHandler struct {
	onSwitch func(string)
}

func NewInitialGuessStageHandler() *initialGuessStageHandler {
	return &initialGuessStageHandler{}
}

func (igh *initialGuessStageHandler) Stage() string {
	return STAGE_INITIAL_GUESS
}

func (igh *initialGuessStageHandler) OnEnter(ctx *GameContext) {
	// 重置回合状态
	ctx.InitialGuess = ""
	ctx.CurrentGuess = ""
	ctx.Options = nil
	ctx.LockedIn = false

	ctx.RemainingSeconds = ctx.Settings.InitialPhaseSeconds
	ctx.StartTicker(STAGE_INITIAL_GUESS)

	ctx.PushSnapshot()
}

func (igh *initialGuessStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		return onPlayerJoin(ctx, jreq)
	}

	if rreq := TryUnwrapRosterUpdateRequest(req); rreq != nil {
		onRosterUpdate(ctx, rreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq.PlayerID, ereq.RespCh)
		return nil
	}

	if treq := TryUnwrapTickRequest(req); treq != nil {
		if treq.Stage != STAGE_INITIAL_GUESS {
			// 上一阶段残留的滴答，直接丢弃
			return nil
		}

		if ctx.LockedIn {
			return nil
		}

		if ctx.RemainingSeconds > 0 {
			ctx.RemainingSeconds--
		}

		if ctx.RemainingSeconds <= 0 {
			// 计时耗尽和手动锁定触发同一个转移
			ctx.StopTicker()
			igh.onSwitch(STAGE_MULTIPLE_CHOICE)
			return nil
		}

		ctx.PushSnapshot()

		return nil
	}

	if sreq := TryUnwrapSelectCandidateRequest(req); sreq != nil {
		if ctx.LockedIn {
			// 已锁定后的点选是无效操作，静默忽略
			return nil
		}

		if sreq.CandidateID == ctx.LocalPlayerID {
			return errors.New("无法选择：不能猜测自己")
		}

		if _, ok := ctx.Players[sreq.CandidateID]; !ok {
			return errors.New("无法选择：该玩家不在名单里")
		}

		ctx.CurrentGuess = sreq.CandidateID
		ctx.PushSnapshot()

		return nil
	}

	if lreq := TryUnwrapLockInRequest(req); lreq != nil {
		// 没有选择时锁定是无效操作；重复锁定也是无效操作
		if ctx.CurrentGuess == "" || ctx.LockedIn {
			return nil
		}

		ctx.LockedIn = true
		ctx.StopTicker()

		igh.onSwitch(STAGE_MULTIPLE_CHOICE)

		return nil
	}

	return errors.New("初猜阶段只接受 SelectCandidate 和 LockIn 请求")
}

func (igh *initialGuessStageHandler) OnExit(ctx *GameContext) {
	ctx.StopTicker()

	// 初猜在阶段结束的瞬间定格，之后不再变化
	// 可能为空（玩家没有做出任何选择）
	ctx.InitialGuess = ctx.CurrentGuess
}

func (igh *initialGuessStageHandler) SetOnSwitch(onSwitch func(string)) {
	igh.onSwitch = onSwitch
}

// 多选阶段处理器：回合的第二阶段，揭晓日期提示并缩小候选范围
type multipleChoiceStageHandler struct {
	onSwitch func(string)
}

func NewMultipleChoiceStageHandler() *multipleChoiceStageHandler {
	return &multipleChoiceStageHandler{}
}

func (mch *multipleChoiceStageHandler) Stage() string {
	return STAGE_MULTIPLE_CHOICE
}

func (mch *multipleChoiceStageHandler) OnEnter(ctx *GameContext) {
	msg := ctx.CurrentMessage()
	if msg == nil {
		zap.L().Error(
			"多选阶段没有对应的回合消息",
			zap.String("session_id", ctx.SessionID),
			zap.Int("round_index", ctx.RoundIndex),
		)
		ctx.Options = nil
	} else {
		ctx.Options = GenerateOptions(
			ctx.OrderedPlayers(),
			msg.AuthorID,
			ctx.LocalPlayerID,
		)
	}

	// 锁定标记重置；当前选择保留，作为默认带入的初猜
	ctx.LockedIn = false

	ctx.RemainingSeconds = ctx.Settings.InitialPhaseSeconds
	ctx.StartTicker(STAGE_MULTIPLE_CHOICE)

	ctx.PushSnapshot()
}

func (mch *multipleChoiceStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		return onPlayerJoin(ctx, jreq)
	}

	if rreq := TryUnwrapRosterUpdateRequest(req); rreq != nil {
		onRosterUpdate(ctx, rreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq.PlayerID, ereq.RespCh)
		return nil
	}

	if treq := TryUnwrapTickRequest(req); treq != nil {
		if treq.Stage != STAGE_MULTIPLE_CHOICE {
			return nil
		}

		if ctx.LockedIn {
			return nil
		}

		if ctx.RemainingSeconds > 0 {
			ctx.RemainingSeconds--
		}

		if ctx.RemainingSeconds <= 0 {
			ctx.StopTicker()
			mch.onSwitch(STAGE_ROUND_SUMMARY)
			return nil
		}

		ctx.PushSnapshot()

		return nil
	}

	if sreq := TryUnwrapSelectCandidateRequest(req); sreq != nil {
		if ctx.LockedIn {
			return nil
		}

		found := false
		for _, opt := range ctx.Options {
			if opt.ID == sreq.CandidateID {
				found = true
				break
			}
		}

		if !found {
			return errors.New("无法选择：该玩家不在候选项里")
		}

		ctx.CurrentGuess = sreq.CandidateID
		ctx.PushSnapshot()

		return nil
	}

	if lreq := TryUnwrapLockInRequest(req); lreq != nil {
		if ctx.CurrentGuess == "" || ctx.LockedIn {
			return nil
		}

		ctx.LockedIn = true
		ctx.StopTicker()

		mch.onSwitch(STAGE_ROUND_SUMMARY)

		return nil
	}

	return errors.New("多选阶段只接受 SelectCandidate 和 LockIn 请求")
}

func (mch *multipleChoiceStageHandler) OnExit(ctx *GameContext) {
	ctx.StopTicker()

	msg := ctx.CurrentMessage()
	if msg == nil {
		zap.L().Error(
			"回合结束时没有对应的消息，跳过结果生成",
			zap.String("session_id", ctx.SessionID),
			zap.Int("round_index", ctx.RoundIndex),
		)
		return
	}

	// 组装本回合唯一的一份结果并计分
	result := &RoundResult{
		InitialGuess:    ctx.InitialGuess,
		FinalGuess:      ctx.CurrentGuess,
		CorrectAuthorID: msg.AuthorID,
		PointsEarned: Score(
			ctx.InitialGuess,
			ctx.CurrentGuess,
			msg.AuthorID,
		),
	}

	ctx.LastResult = result

	if ctx.ApplyScore != nil {
		ctx.ApplyScore(ctx, result)
	}
}

func (mch *multipleChoiceStageHandler) SetOnSwitch(onSwitch func(string)) {
	mch.onSwitch = onSwitch
}

// 回合小结阶段处理器
type roundSummaryStageHandler struct {
	onSwitch func(string)
}

func NewRoundSummaryStageHandler() *roundSummaryStageHandler {
	return &roundSummaryStageHandler{}
}

func (rsh *roundSummaryStageHandler) Stage() string {
	return STAGE_ROUND_SUMMARY
}

func (rsh *roundSummaryStageHandler) OnEnter(ctx *GameContext) {
	ctx.RemainingSeconds = ctx.Settings.SummarySeconds
	ctx.StartTicker(STAGE_ROUND_SUMMARY)

	ctx.PushSnapshot()
}

// advance 决定下一步去向：还有回合就继续，否则进入终局
func (rsh *roundSummaryStageHandler) advance(ctx *GameContext) {
	ctx.StopTicker()

	if ctx.RoundIndex >= ctx.Settings.TotalRounds ||
		ctx.RoundIndex >= len(ctx.RoundMessages) {
		rsh.onSwitch(STAGE_END_GAME)
		return
	}

	ctx.RoundIndex++
	ctx.LastResult = nil

	rsh.onSwitch(STAGE_INITIAL_GUESS)
}

func (rsh *roundSummaryStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		return onPlayerJoin(ctx, jreq)
	}

	if rreq := TryUnwrapRosterUpdateRequest(req); rreq != nil {
		onRosterUpdate(ctx, rreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq.PlayerID, ereq.RespCh)
		return nil
	}

	if treq := TryUnwrapTickRequest(req); treq != nil {
		if treq.Stage != STAGE_ROUND_SUMMARY {
			return nil
		}

		if ctx.RemainingSeconds > 0 {
			ctx.RemainingSeconds--
		}

		if ctx.RemainingSeconds <= 0 {
			// 小结展示超时后自动进入下一回合
			rsh.advance(ctx)
			return nil
		}

		ctx.PushSnapshot()

		return nil
	}

	if creq := TryUnwrapContinueRequest(req); creq != nil {
		rsh.advance(ctx)
		return nil
	}

	return errors.New("回合小结阶段只接受 Continue 请求")
}

func (rsh *roundSummaryStageHandler) OnExit(ctx *GameContext) {
	ctx.StopTicker()
}

func (rsh *roundSummaryStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 终局阶段处理器
type endGameStageHandler struct {
	onSwitch func(string)
}

func NewEndGameStageHandler() *endGameStageHandler {
	return &endGameStageHandler{}
}

func (egh *endGameStageHandler) Stage() string {
	return STAGE_END_GAME
}

func (egh *endGameStageHandler) OnEnter(ctx *GameContext) {
	// 排行榜在快照里即时计算，不做存储
	ctx.PushSnapshot()
}

func (egh *endGameStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		return onPlayerJoin(ctx, jreq)
	}

	if rreq := TryUnwrapRosterUpdateRequest(req); rreq != nil {
		onRosterUpdate(ctx, rreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq.PlayerID, ereq.RespCh)
		return nil
	}

	if preq := TryUnwrapPlayAgainRequest(req); preq != nil {
		// 回到大厅；得分等到下一次开局才清零
		egh.onSwitch(STAGE_LOBBY)
		return nil
	}

	return errors.New("游戏已结束，只接受 PlayAgain 请求")
}

func (egh *endGameStageHandler) OnExit(ctx *GameContext) {
}

func (egh *endGameStageHandler) SetOnSwitch(onSwitch func(string)) {
	egh.onSwitch = onSwitch
}

// onPlayerJoin 处理本地玩家的加入和断线重连
// 每台状态机只服务一个客户端，其他玩家的 ID 会被拒绝
func onPlayerJoin(ctx *GameContext, req *JoinGameRequest) error {
	if req.PlayerID != ctx.LocalPlayerID {
		return errors.New("无法加入：会话属于其他玩家")
	}

	// 已有连接时视为重连：关闭旧通道，让旧的写协程退出
	if ctx.RespCh != nil && ctx.RespCh != req.RespCh {
		close(ctx.RespCh)

		zap.L().Info(
			"检测到重复加入，执行断线重连",
			zap.String("session_id", ctx.SessionID),
			zap.String("player_id", req.PlayerID),
		)
	}

	ctx.RespCh = req.RespCh

	joiner := Player{ID: req.PlayerID, Name: req.PlayerName}
	if p, ok := ctx.Players[req.PlayerID]; ok {
		joiner = *p
	}

	ctx.Push(WrapResponse(
		RESP_JOIN_GAME,
		JoinGameResponse{
			SessionID: ctx.SessionID,
			Stage:     ctx.GameStage,
			Joiner:    joiner,
			Players:   ctx.OrderedPlayers(),
			HostID:    ctx.HostID,
		},
	))

	// 紧接着推送完整快照，重连的客户端据此恢复界面
	ctx.PushSnapshot()

	return nil
}

// onRosterUpdate 把名单提供者的快照合并进玩家集合
// 进行中回合已经定格的猜测不受影响：离开的玩家只是从名单
// 和后续回合的候选池里消失，结果里的 ID 引用保持有效
func onRosterUpdate(ctx *GameContext, req *RosterUpdateRequest) {
	incoming := make(map[string]bool, len(req.Participants))
	newOrder := make([]string, 0, len(req.Participants))

	for _, part := range req.Participants {
		incoming[part.ID] = true
		newOrder = append(newOrder, part.ID)

		if existing, ok := ctx.Players[part.ID]; ok {
			// 已有玩家只更新展示信息，得分由状态机独占维护
			existing.Name = part.Name
			existing.AvatarURL = part.AvatarURL
			continue
		}

		joined := part
		joined.Score = 0
		ctx.Players[part.ID] = &joined

		zap.L().Info(
			"名单新增参与者",
			zap.String("session_id", ctx.SessionID),
			zap.String("player_id", part.ID),
			zap.String("player_name", part.Name),
		)
	}

	for id := range ctx.Players {
		if !incoming[id] {
			delete(ctx.Players, id)

			zap.L().Info(
				"参与者离开语音频道",
				zap.String("session_id", ctx.SessionID),
				zap.String("player_id", id),
			)
		}
	}

	ctx.PlayerOrder = newOrder

	if req.HostID != "" {
		ctx.HostID = req.HostID
	} else if len(newOrder) > 0 {
		ctx.HostID = newOrder[0]
	}

	ctx.PushSnapshot()
}

func onPlayerExit(ctx *GameContext, playerID string, reqRespCh chan ResponseWrapper) {
	if playerID != ctx.LocalPlayerID {
		zap.L().Warn(
			"收到非本地玩家的退出请求",
			zap.String("session_id", ctx.SessionID),
			zap.String("player_id", playerID),
		)
		return
	}

	// 通道不匹配说明这是被顶替的旧连接在退出
	// 旧通道在重连时已经被状态机关闭，绝不能再向它发送
	if ctx.RespCh != reqRespCh {
		zap.L().Info(
			"检测到旧连接退出（已被顶替），不结束会话",
			zap.String("session_id", ctx.SessionID),
			zap.String("player_id", playerID),
		)

		return
	}

	playerName := ""
	if p, ok := ctx.Players[playerID]; ok {
		playerName = p.Name
	}

	ctx.Push(WrapResponse(
		RESP_EXIT_GAME,
		ExitGameResponse{
			LeftPlayerID:   playerID,
			LeftPlayerName: playerName,
		},
	))

	if ctx.RespCh != nil {
		close(ctx.RespCh)
		ctx.RespCh = nil
	}

	// 放弃进行中的回合：停止计时，不产生任何结果和得分
	ctx.StopTicker()
	ctx.Exited = true

	zap.L().Info(
		"本地玩家退出，会话结束",
		zap.String("session_id", ctx.SessionID),
		zap.String("player_id", playerID),
	)
}
