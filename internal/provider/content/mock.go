package content

import (
	"errors"
	"math/rand/v2"
	"time"

	"guess-who-said-it-be/internal/service/game"
)

// 内置的模拟消息池，模仿一群朋友的日常频道聊天
// 每条正文在 5 到 20 个词之间，作者 ID 对应模拟名单里的玩家
var mockMessages = []game.Message{
	{
		ID:        "msg_001",
		Content:   "honestly i think pineapple on pizza is criminally underrated and i will die on this hill",
		AuthorID:  "123456789012345678",
		Timestamp: time.Date(2024, 11, 15, 14, 23, 0, 0, time.UTC),
	},
	{
		ID:        "msg_002",
		Content:   "just spent 3 hours debugging only to find a missing semicolon lmao",
		AuthorID:  "234567890123456789",
		Timestamp: time.Date(2024, 11, 12, 9, 45, 0, 0, time.UTC),
	},
	{
		ID:        "msg_003",
		Content:   "why do we park in driveways but drive on parkways this keeps me up at night",
		AuthorID:  "345678901234567890",
		Timestamp: time.Date(2024, 10, 28, 23, 15, 0, 0, time.UTC),
	},
	{
		ID:        "msg_004",
		Content:   "my cat just knocked over my coffee and stared at me like i was the problem",
		AuthorID:  "456789012345678901",
		Timestamp: time.Date(2024, 11, 8, 16, 30, 0, 0, time.UTC),
	},
	{
		ID:        "msg_005",
		Content:   "anyone else get anxiety when someone says we need to talk or is that just me",
		AuthorID:  "567890123456789012",
		Timestamp: time.Date(2024, 11, 1, 11, 0, 0, 0, time.UTC),
	},
	{
		ID:        "msg_006",
		Content:   "bro i just saw a guy walking his cat on a leash this city is wild",
		AuthorID:  "123456789012345678",
		Timestamp: time.Date(2024, 9, 20, 18, 45, 0, 0, time.UTC),
	},
	{
		ID:        "msg_007",
		Content:   "reminder that water is just boneless ice and you cannot change my mind about this",
		AuthorID:  "345678901234567890",
		Timestamp: time.Date(2024, 10, 5, 20, 30, 0, 0, time.UTC),
	},
	{
		ID:        "msg_008",
		Content:   "i have a meeting in 5 minutes that could have been an email send help",
		AuthorID:  "234567890123456789",
		Timestamp: time.Date(2024, 11, 18, 8, 55, 0, 0, time.UTC),
	},
	{
		ID:        "msg_009",
		Content:   "just realized i have been pronouncing quinoa wrong my entire life feeling betrayed",
		AuthorID:  "567890123456789012",
		Timestamp: time.Date(2024, 8, 14, 12, 20, 0, 0, time.UTC),
	},
	{
		ID:        "msg_010",
		Content:   "the urge to adopt every dog i see on the street is getting out of control",
		AuthorID:  "456789012345678901",
		Timestamp: time.Date(2024, 10, 22, 15, 10, 0, 0, time.UTC),
	},
	{
		ID:        "msg_011",
		Content:   "just got absolutely destroyed in valorant by what i assume was a 12 year old",
		AuthorID:  "123456789012345678",
		Timestamp: time.Date(2024, 11, 10, 21, 0, 0, 0, time.UTC),
	},
	{
		ID:        "msg_012",
		Content:   "if bread is bad for ducks why do they keep eating it checkmate scientists",
		AuthorID:  "345678901234567890",
		Timestamp: time.Date(2024, 9, 8, 13, 40, 0, 0, time.UTC),
	},
	{
		ID:        "msg_013",
		Content:   "fourth coffee of the day and i can hear colors now is this normal",
		AuthorID:  "234567890123456789",
		Timestamp: time.Date(2024, 11, 5, 14, 0, 0, 0, time.UTC),
	},
	{
		ID:        "msg_014",
		Content:   "napped so hard i woke up in a different dimension where is everyone",
		AuthorID:  "456789012345678901",
		Timestamp: time.Date(2024, 10, 30, 17, 45, 0, 0, time.UTC),
	},
	{
		ID:        "msg_015",
		Content:   "tried to make homemade tacos and set off the smoke alarm twice new record",
		AuthorID:  "567890123456789012",
		Timestamp: time.Date(2024, 11, 20, 19, 30, 0, 0, time.UTC),
	},
}

// MockProvider 从内置消息池里供稿，开发模式和测试使用
// 真实的聊天历史接入不在当前范围内
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (mp *MockProvider) Rounds(count int, authorIDs []string) ([]game.Message, error) {
	if count <= 0 {
		return nil, errors.New("回合数必须大于 0")
	}

	eligible := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		eligible[id] = true
	}

	// 只保留指定作者的消息
	filtered := make([]game.Message, 0, len(mockMessages))
	for _, msg := range mockMessages {
		if eligible[msg.AuthorID] {
			filtered = append(filtered, msg)
		}
	}

	// 随机打乱后截取所需数量，不足时全部返回
	rand.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})

	if count < len(filtered) {
		filtered = filtered[:count]
	}

	return filtered, nil
}

// AllMessages 返回完整消息池的副本，测试使用
func AllMessages() []game.Message {
	return append([]game.Message(nil), mockMessages...)
}
