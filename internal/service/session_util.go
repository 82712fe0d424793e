package service

import (
	"time"

	"guess-who-said-it-be/internal/provider/roster"
	"guess-who-said-it-be/internal/service/game"
)

// 没有任何状态机的空会话保留十分钟，等候首位玩家连入
const EMPTY_SESSION_TTL = 10 * time.Minute

func isSessionValid(entry *sessionEntry) bool {
	if entry == nil {
		return false
	}

	if len(entry.machines) > 0 {
		return true
	}

	return time.Since(entry.createdAt) < EMPTY_SESSION_TTL
}

func participantsToPlayers(participants []roster.Participant) []game.Player {
	players := make([]game.Player, 0, len(participants))

	for _, p := range participants {
		if p.Bot {
			continue
		}

		players = append(players, game.Player{
			ID:        p.ID,
			Name:      p.Name,
			AvatarURL: p.AvatarURL,
		})
	}

	return players
}

// hostIDOf 返回名单里第一个非机器人参与者，即房主
func hostIDOf(participants []roster.Participant) string {
	for _, p := range participants {
		if !p.Bot {
			return p.ID
		}
	}

	return ""
}
