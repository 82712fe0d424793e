package service

import (
	"errors"
	"sync"
	"time"

	"guess-who-said-it-be/internal/provider/content"
	"guess-who-said-it-be/internal/provider/roster"
	"guess-who-said-it-be/internal/service/dto"
	"guess-who-said-it-be/internal/service/game"

	"go.uber.org/zap"
)

// SessionService 管理活动实例下的游戏状态机
// 每个已连接的玩家拥有独立的一台状态机（单客户端模拟，
// 不做跨客户端仲裁），名单更新统一从这里扇出
type SessionService struct {
	state *sessionServiceState

	roster   roster.Provider
	content  content.Provider
	settings game.Settings

	unsubscribe func()
}

type sessionServiceState struct {
	mu sync.RWMutex

	// 会话 ID 到会话实体的映射
	sessions map[string]*sessionEntry

	cleanUpDone chan struct{}
}

type sessionEntry struct {
	id        string
	name      string
	createdAt time.Time

	// 玩家 ID 到状态机的映射
	machines map[string]*machineEntry
}

type machineEntry struct {
	machine *game.GameMachine
	reqCh   chan game.RequestWrapper
	doneCh  chan struct{}
}

func NewSessionService(
	rosterProvider roster.Provider,
	contentProvider content.Provider,
	settings game.Settings,
) *SessionService {
	state := &sessionServiceState{
		sessions:    make(map[string]*sessionEntry),
		cleanUpDone: make(chan struct{}),
	}

	ss := &SessionService{
		state:    state,
		roster:   rosterProvider,
		content:  contentProvider,
		settings: settings,
	}

	// 订阅名单变化，扇出到所有状态机
	ss.unsubscribe = rosterProvider.Subscribe(ss.fanOutRoster)

	// 启动一个 goroutine 定期清理过期的会话
	go ss.startCleanupLoop()

	return ss
}

func (ss *SessionService) startCleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ss.state.cleanUpDone:
			return

		case <-ticker.C:
			ss.state.mu.Lock()

			for sessionID, entry := range ss.state.sessions {
				for playerID, me := range entry.machines {
					if me.machine.IsFinished() {
						zap.S().Infof("会话 %s 玩家 %s 的状态机已结束，回收", sessionID, playerID)

						close(me.doneCh)
						delete(entry.machines, playerID)
					}
				}

				if !isSessionValid(entry) {
					zap.S().Infof("会话 %s 状态失效，开始清理", sessionID)

					for _, me := range entry.machines {
						close(me.doneCh)
					}

					delete(ss.state.sessions, sessionID)
				}
			}

			ss.state.mu.Unlock()
		}
	}
}

func (ss *SessionService) Close() {
	if ss.unsubscribe != nil {
		ss.unsubscribe()
	}

	close(ss.state.cleanUpDone)

	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	for _, entry := range ss.state.sessions {
		for _, me := range entry.machines {
			close(me.doneCh)
		}
	}
}

func (ss *SessionService) CreateSession(req dto.CreateSessionRequest) (dto.CreateSessionResponse, error) {
	if req.SessionName == "" {
		return dto.CreateSessionResponse{}, errors.New("会话名称不能为空")
	}

	sessionID := game.ShortID()

	ss.state.mu.Lock()

	ss.state.sessions[sessionID] = &sessionEntry{
		id:        sessionID,
		name:      req.SessionName,
		createdAt: time.Now(),
		machines:  make(map[string]*machineEntry),
	}

	ss.state.mu.Unlock()

	zap.S().Infof("会话 %s（%s）已创建", sessionID, req.SessionName)

	return dto.CreateSessionResponse{SessionID: sessionID}, nil
}

// JoinSession 为加入的玩家找到或创建状态机，并把加入请求
// 转发进状态机；加入确认由状态机经 RespCh 推给客户端
// 返回的请求通道用于转发该客户端后续的全部意图
func (ss *SessionService) JoinSession(req *game.JoinGameRequest) (chan game.RequestWrapper, error) {
	if req.SessionID == "" {
		return nil, errors.New("会话 ID 不能为空")
	}

	// 开发模式下允许省略玩家身份，由模拟名单补全
	if req.PlayerID == "" {
		source, ok := ss.roster.(roster.CurrentUserSource)
		if !ok {
			return nil, errors.New("加入者身份不能为空")
		}

		current, ok := source.CurrentUser()
		if !ok {
			return nil, errors.New("无法识别当前玩家")
		}

		req.PlayerID = current.ID
		req.PlayerName = current.Name
	}

	ss.state.mu.Lock()

	entry := ss.state.sessions[req.SessionID]
	if entry == nil {
		ss.state.mu.Unlock()
		return nil, errors.New("会话不存在")
	}

	me, exists := entry.machines[req.PlayerID]
	if !exists {
		participants, err := ss.roster.Participants()
		if err != nil {
			ss.state.mu.Unlock()
			return nil, errors.New("获取参与者名单失败")
		}

		players := participantsToPlayers(participants)

		// 名单暂时滞后时，至少保证本地玩家在场
		found := false
		for _, p := range players {
			if p.ID == req.PlayerID {
				found = true
				break
			}
		}
		if !found {
			players = append(players, game.Player{
				ID:   req.PlayerID,
				Name: req.PlayerName,
			})
		}

		doneCh := make(chan struct{})

		machine := game.NewGameMachine(game.MachineParams{
			SessionID:     req.SessionID,
			LocalPlayerID: req.PlayerID,
			HostID:        hostIDOf(participants),
			Roster:        players,
			Settings:      ss.settings,
			FetchRounds:   ss.content.Rounds,
		}, doneCh)

		me = &machineEntry{
			machine: machine,
			reqCh:   machine.GetReqCh(),
			doneCh:  doneCh,
		}

		entry.machines[req.PlayerID] = me

		go machine.Start()

		zap.S().Infof("会话 %s 为玩家 %s 创建状态机", req.SessionID, req.PlayerID)
	}

	reqCh := me.reqCh

	ss.state.mu.Unlock()

	joinWrapper := game.RequestWrapper{
		ReqType:    game.REQ_JOIN_GAME,
		NativeData: req,
	}

	reqTimer := time.NewTimer(5 * time.Second)

	select {
	case reqCh <- joinWrapper:
		if !reqTimer.Stop() {
			select {
			case <-reqTimer.C:
			default:
			}
		}

	case <-reqTimer.C:
		zap.S().Warnf("会话 %s 无法及时处理加入请求，%s 发送失败", req.SessionID, req.PlayerName)
		return nil, errors.New("加入会话失败")
	}

	zap.S().Infof("会话 %s 接纳玩家 %s(%s)", req.SessionID, req.PlayerName, req.PlayerID)

	return reqCh, nil
}

// fanOutRoster 把名单快照转发给所有存活的状态机
func (ss *SessionService) fanOutRoster(participants []roster.Participant) {
	update := &game.RosterUpdateRequest{
		Participants: participantsToPlayers(participants),
		HostID:       hostIDOf(participants),
	}

	ss.state.mu.RLock()
	defer ss.state.mu.RUnlock()

	for sessionID, entry := range ss.state.sessions {
		for playerID, me := range entry.machines {
			wrapper := game.RequestWrapper{
				ReqType:    game.REQ_ROSTER_UPDATE,
				NativeData: update,
			}

			select {
			case me.reqCh <- wrapper:
			default:
				zap.S().Warnf("会话 %s 玩家 %s 的请求通道已满，丢弃名单更新", sessionID, playerID)
			}
		}
	}
}
