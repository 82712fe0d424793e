package roster

import "sync"

// 开发模式使用的模拟参与者，ID 与模拟消息池的作者对应
var mockParticipants = []Participant{
	{
		ID:        "123456789012345678",
		Name:      "xX_DarkNinja_Xx",
		AvatarURL: "https://cdn.discordapp.com/embed/avatars/0.png",
	},
	{
		ID:        "234567890123456789",
		Name:      "CoffeeAddict42",
		AvatarURL: "https://cdn.discordapp.com/embed/avatars/1.png",
	},
	{
		ID:        "345678901234567890",
		Name:      "PotatoLord",
		AvatarURL: "https://cdn.discordapp.com/embed/avatars/2.png",
	},
	{
		ID:        "456789012345678901",
		Name:      "sleepy_cat_vibes",
		AvatarURL: "https://cdn.discordapp.com/embed/avatars/3.png",
	},
	{
		ID:        "567890123456789012",
		Name:      "TacoTuesday",
		AvatarURL: "https://cdn.discordapp.com/embed/avatars/4.png",
	},
}

// MockProvider 返回固定的模拟名单，开发模式和测试使用
// 第一个参与者同时充当本地玩家和房主，便于单人调试
type MockProvider struct {
	mu           sync.RWMutex
	participants []Participant
	subs         map[int]func([]Participant)
	nextSub      int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		participants: append([]Participant(nil), mockParticipants...),
		subs:         make(map[int]func([]Participant)),
	}
}

func (mp *MockProvider) Participants() ([]Participant, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return append([]Participant(nil), mp.participants...), nil
}

func (mp *MockProvider) IsHost(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return id != "" && hostOf(mp.participants) == id
}

func (mp *MockProvider) CurrentUser() (Participant, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if len(mp.participants) == 0 {
		return Participant{}, false
	}

	return mp.participants[0], true
}

func (mp *MockProvider) Subscribe(fn func([]Participant)) func() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	id := mp.nextSub
	mp.nextSub++
	mp.subs[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			mp.mu.Lock()
			delete(mp.subs, id)
			mp.mu.Unlock()
		})
	}
}

// SetParticipants 替换模拟名单并通知订阅者，测试使用
func (mp *MockProvider) SetParticipants(participants []Participant) {
	mp.mu.Lock()

	mp.participants = append([]Participant(nil), participants...)

	subs := make([]func([]Participant), 0, len(mp.subs))
	for _, fn := range mp.subs {
		subs = append(subs, fn)
	}

	mp.mu.Unlock()

	for _, fn := range subs {
		fn(append([]Participant(nil), participants...))
	}
}

func (mp *MockProvider) Close() {}
