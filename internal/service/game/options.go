package game

import "math/rand/v2"

// Fisher-Yates 洗牌，每种排列等概率，不修改入参
func shufflePlayers(players []Player) []Player {
	shuffled := append([]Player(nil), players...)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

// GenerateOptions 生成第二阶段的多选项：正确作者 + 最多 2 个干扰项
// 1. 作者不在名单里时返回空（提供者一致时不应发生）
// 2. 干扰项从名单中排除作者和本地玩家后随机抽取，不足 2 个时容忍更少
// 3. 合并后再次洗牌，让正确答案的位置均匀分布
func GenerateOptions(players []Player, authorID, localPlayerID string) []Player {
	var correct *Player

	for i := range players {
		if players[i].ID == authorID {
			correct = &players[i]
			break
		}
	}

	if correct == nil {
		return nil
	}

	candidates := make([]Player, 0, len(players))
	for _, p := range players {
		if p.ID == authorID || p.ID == localPlayerID {
			continue
		}
		candidates = append(candidates, p)
	}

	decoyCount := 2
	if len(candidates) < decoyCount {
		decoyCount = len(candidates)
	}

	decoys := shufflePlayers(candidates)[:decoyCount]

	options := make([]Player, 0, decoyCount+1)
	options = append(options, *correct)
	options = append(options, decoys...)

	return shufflePlayers(options)
}
