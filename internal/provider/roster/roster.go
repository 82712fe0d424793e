package roster

// Participant 是语音频道的一名参与者
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bot       bool   `json:"bot,omitempty"`
}

// Provider 是名单提供者：给出语音频道的参与者集合并在变化时通知
// 约定：
// 1. Participants 按加入顺序返回，第一个非机器人参与者是房主
// 2. Subscribe 注册的回调会在快照变化时收到完整的新快照，
//    推送事件和周期性权威拉取合并去重后才会触达回调
// 3. 返回的取消函数可以安全地多次调用
type Provider interface {
	Participants() ([]Participant, error)
	IsHost(id string) bool
	Subscribe(fn func([]Participant)) (unsubscribe func())
	Close()
}

// CurrentUserSource 是可选能力：开发模式的提供者可以直接
// 给出本地参与者（生产环境里身份来自客户端的 OAuth 流程）
type CurrentUserSource interface {
	CurrentUser() (Participant, bool)
}

// hostOf 返回快照里的房主：按提供者顺序的第一个非机器人参与者
func hostOf(participants []Participant) string {
	for _, p := range participants {
		if !p.Bot {
			return p.ID
		}
	}

	return ""
}

// participantsEqual 比较两份快照是否一致，用于通知去重
func participantsEqual(a, b []Participant) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
