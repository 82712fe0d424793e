package game

import "sort"

// 计分规则：
// 1. 第一阶段就猜中作者，得 2 分
// 2. 第一阶段猜错（或没猜），提示揭晓后改对，得 1 分
// 3. 其余情况（包括两个阶段都没有选择）得 0 分
const (
	SCORE_FIRST_TRY     = 2
	SCORE_CHANGED_GUESS = 1
	SCORE_WRONG         = 0
)

// Score 是纯函数，没有任何副作用
// 空字符串表示该阶段没有做出选择，永远不会等于作者 ID
func Score(initialGuess, finalGuess, correctAuthorID string) int {
	if initialGuess != "" && initialGuess == correctAuthorID {
		return SCORE_FIRST_TRY
	}

	if finalGuess != "" && finalGuess == correctAuthorID {
		return SCORE_CHANGED_GUESS
	}

	return SCORE_WRONG
}

// Ranking 在游戏结束时计算排名，不做持久化
// 名次 = 1 + 得分严格更高的玩家数量，同分玩家共享名次
// 当多人并列最高分时视为平局，所有最高分玩家都是赢家
func Ranking(players []Player) []RankEntry {
	if len(players) == 0 {
		return nil
	}

	ranked := append([]Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	topScore := ranked[0].Score

	entries := make([]RankEntry, 0, len(ranked))

	for _, p := range ranked {
		higher := 0
		for _, other := range ranked {
			if other.Score > p.Score {
				higher++
			}
		}

		entries = append(entries, RankEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Rank:     higher + 1,
			IsWinner: p.Score == topScore,
		})
	}

	return entries
}
