package roster

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 权威拉取的周期；语音状态的推送事件只用来提前触发一次拉取
const POLL_INTERVAL = 2 * time.Second

// DiscordProvider 基于 Discord 网关和 REST 接口给出
// 指定语音频道的参与者名单
//
// 网关的 VoiceStateUpdate 推送并不总是可靠（活动重启、
// 断线期间的事件会丢失），所以以周期性 REST 拉取为权威，
// 推送事件只是让下一次拉取提前发生；快照去重后才通知订阅者
type DiscordProvider struct {
	botToken  string
	guildID   string
	channelID string

	// 同一时间最多只有一次会话初始化，并发调用共享同一结果
	initGroup singleflight.Group

	mu       sync.RWMutex
	session  *discordgo.Session
	snapshot []Participant
	subs     map[int]func([]Participant)
	nextSub  int

	refreshCh chan struct{}
	pollDone  chan struct{}
	pollOnce  sync.Once
	closeOnce sync.Once
}

func NewDiscordProvider(botToken, guildID, channelID string) *DiscordProvider {
	return &DiscordProvider{
		botToken:  botToken,
		guildID:   guildID,
		channelID: channelID,
		subs:      make(map[int]func([]Participant)),
		refreshCh: make(chan struct{}, 1),
		pollDone:  make(chan struct{}),
	}
}

// init 打开 Discord 会话，多次调用只会初始化一次
func (dp *DiscordProvider) init() (*discordgo.Session, error) {
	dp.mu.RLock()
	if dp.session != nil {
		session := dp.session
		dp.mu.RUnlock()
		return session, nil
	}
	dp.mu.RUnlock()

	v, err, _ := dp.initGroup.Do("init", func() (any, error) {
		dp.mu.RLock()
		if dp.session != nil {
			session := dp.session
			dp.mu.RUnlock()
			return session, nil
		}
		dp.mu.RUnlock()

		session, err := discordgo.New("Bot " + dp.botToken)
		if err != nil {
			return nil, fmt.Errorf("创建 Discord 会话失败: %w", err)
		}

		session.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsGuildMembers

		session.AddHandler(dp.onVoiceStateUpdate)

		if err := session.Open(); err != nil {
			return nil, fmt.Errorf("连接 Discord 网关失败: %w", err)
		}

		dp.mu.Lock()
		dp.session = session
		dp.mu.Unlock()

		zap.L().Info(
			"Discord 会话已就绪",
			zap.String("guild_id", dp.guildID),
			zap.String("channel_id", dp.channelID),
		)

		return session, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*discordgo.Session), nil
}

// onVoiceStateUpdate 把网关推送转换成一次提前的权威拉取
func (dp *DiscordProvider) onVoiceStateUpdate(_ *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if vsu.GuildID != dp.guildID {
		return
	}

	select {
	case dp.refreshCh <- struct{}{}:
	default:
	}
}

// fetch 以 REST 拉取为权威重建参与者列表
// 已在快照里的参与者保持原有顺序，新加入的追加到末尾，
// 这样"第一个参与者是房主"的约定在拉取之间保持稳定
func (dp *DiscordProvider) fetch() ([]Participant, error) {
	session, err := dp.init()
	if err != nil {
		return nil, err
	}

	guild, err := session.State.Guild(dp.guildID)
	if err != nil {
		guild, err = session.Guild(dp.guildID)
		if err != nil {
			return nil, fmt.Errorf("获取服务器信息失败: %w", err)
		}
	}

	inChannel := make(map[string]bool)
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == dp.channelID {
			inChannel[vs.UserID] = true
		}
	}

	dp.mu.RLock()
	previous := dp.snapshot
	dp.mu.RUnlock()

	participants := make([]Participant, 0, len(inChannel))
	seen := make(map[string]bool, len(inChannel))

	for _, p := range previous {
		if inChannel[p.ID] {
			participants = append(participants, p)
			seen[p.ID] = true
		}
	}

	for userID := range inChannel {
		if seen[userID] {
			continue
		}

		member, err := session.GuildMember(dp.guildID, userID)
		if err != nil {
			zap.L().Warn(
				"获取成员信息失败，跳过该参与者",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}

		name := member.Nick
		if name == "" {
			name = member.User.Username
		}

		participants = append(participants, Participant{
			ID:        userID,
			Name:      name,
			AvatarURL: member.User.AvatarURL("128"),
			Bot:       member.User.Bot,
		})
	}

	return participants, nil
}

// refresh 拉取一次并在快照变化时通知订阅者
func (dp *DiscordProvider) refresh() {
	participants, err := dp.fetch()
	if err != nil {
		zap.L().Warn("刷新参与者名单失败", zap.Error(err))
		return
	}

	dp.mu.Lock()

	if participantsEqual(dp.snapshot, participants) {
		dp.mu.Unlock()
		return
	}

	dp.snapshot = participants

	subs := make([]func([]Participant), 0, len(dp.subs))
	for _, fn := range dp.subs {
		subs = append(subs, fn)
	}

	dp.mu.Unlock()

	zap.L().Debug(
		"参与者名单发生变化",
		zap.Int("count", len(participants)),
	)

	for _, fn := range subs {
		fn(append([]Participant(nil), participants...))
	}
}

func (dp *DiscordProvider) pollLoop() {
	ticker := time.NewTicker(POLL_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-dp.pollDone:
			return
		case <-dp.refreshCh:
			dp.refresh()
		case <-ticker.C:
			dp.refresh()
		}
	}
}

func (dp *DiscordProvider) Participants() ([]Participant, error) {
	participants, err := dp.fetch()
	if err != nil {
		return nil, err
	}

	dp.mu.Lock()
	dp.snapshot = participants
	dp.mu.Unlock()

	return append([]Participant(nil), participants...), nil
}

func (dp *DiscordProvider) IsHost(id string) bool {
	dp.mu.RLock()
	defer dp.mu.RUnlock()

	return id != "" && hostOf(dp.snapshot) == id
}

func (dp *DiscordProvider) Subscribe(fn func([]Participant)) func() {
	dp.mu.Lock()

	id := dp.nextSub
	dp.nextSub++
	dp.subs[id] = fn

	dp.mu.Unlock()

	// 第一个订阅者到来时启动拉取循环
	dp.pollOnce.Do(func() {
		go dp.pollLoop()
	})

	var once sync.Once

	return func() {
		once.Do(func() {
			dp.mu.Lock()
			delete(dp.subs, id)
			dp.mu.Unlock()
		})
	}
}

func (dp *DiscordProvider) Close() {
	dp.closeOnce.Do(func() {
		close(dp.pollDone)

		dp.mu.Lock()
		session := dp.session
		dp.session = nil
		dp.mu.Unlock()

		if session != nil {
			if err := session.Close(); err != nil {
				zap.L().Warn("关闭 Discord 会话失败", zap.Error(err))
			}
		}
	})
}
