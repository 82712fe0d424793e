package game

import (
	"errors"
	"testing"
)

// playRound 用锁定快速打完当前回合，停在回合小结
func playRound(t *testing.T, gm *GameMachine, guess string) {
	t.Helper()

	drive(t, gm, selectReq(guess))
	drive(t, gm, lockInReq())
	drive(t, gm, lockInReq())

	if gm.ctx.GameStage != STAGE_ROUND_SUMMARY {
		t.Fatalf("round did not reach RoundSummary, got %s", gm.ctx.GameStage)
	}
}

func TestStartGame_RejectedBelowMinimumPlayers(t *testing.T) {
	fetched := false

	gm := NewGameMachine(MachineParams{
		SessionID:     "test-session",
		LocalPlayerID: "alice",
		HostID:        "alice",
		Roster:        testRoster()[:2],
		Settings:      testSettings(1),
		FetchRounds: func(count int, authorIDs []string) ([]Message, error) {
			fetched = true
			return testMessages("bob"), nil
		},
	}, make(chan struct{}))

	gm.handler.OnEnter(gm.ctx)
	t.Cleanup(gm.ctx.StopTicker)

	if err := driveErr(gm, startReq("alice")); err == nil {
		t.Fatalf("start below the player minimum must be rejected")
	}

	if gm.ctx.GameStage != STAGE_LOBBY {
		t.Fatalf("rejected start must stay in Lobby, got %s", gm.ctx.GameStage)
	}

	if fetched {
		t.Fatalf("rejected start must not fetch any content")
	}
}

func TestStartGame_RejectedForNonHost(t *testing.T) {
	gm := NewGameMachine(MachineParams{
		SessionID:     "test-session",
		LocalPlayerID: "alice",
		HostID:        "bob",
		Roster:        testRoster(),
		Settings:      testSettings(1),
		FetchRounds:   fixedRounds(testMessages("bob")),
	}, make(chan struct{}))

	gm.handler.OnEnter(gm.ctx)
	t.Cleanup(gm.ctx.StopTicker)

	if err := driveErr(gm, startReq("alice")); err == nil {
		t.Fatalf("non-host start must be rejected")
	}

	if gm.ctx.GameStage != STAGE_LOBBY {
		t.Fatalf("rejected start must stay in Lobby, got %s", gm.ctx.GameStage)
	}
}

func TestStartGame_AbortsWithoutContent(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(nil))

	if err := driveErr(gm, startReq("alice")); err == nil {
		t.Fatalf("start without any usable content must fail")
	}

	if gm.ctx.GameStage != STAGE_LOBBY || len(gm.ctx.RoundMessages) != 0 {
		t.Fatalf(
			"aborted start must leave the lobby untouched, stage=%s messages=%d",
			gm.ctx.GameStage, len(gm.ctx.RoundMessages),
		)
	}
}

func TestStartGame_ProviderErrorKeepsLobby(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), func(count int, authorIDs []string) ([]Message, error) {
		return nil, errors.New("history is unavailable")
	})

	if err := driveErr(gm, startReq("alice")); err == nil {
		t.Fatalf("provider failure must abort the start")
	}

	if gm.ctx.GameStage != STAGE_LOBBY {
		t.Fatalf("failed start must stay in Lobby, got %s", gm.ctx.GameStage)
	}
}

func TestStartGame_ShortensToAvailableContent(t *testing.T) {
	// 要求 10 回合但只有 2 条消息，游戏在第 2 回合后结束
	settings := testSettings(10)
	gm := newTestMachine(t, settings, fixedRounds(testMessages("bob", "carol")))

	drive(t, gm, startReq("alice"))

	if len(gm.ctx.RoundMessages) != 2 {
		t.Fatalf("want 2 rounds of content, got %d", len(gm.ctx.RoundMessages))
	}

	playRound(t, gm, "bob")
	drive(t, gm, continueReq())

	if gm.ctx.GameStage != STAGE_INITIAL_GUESS || gm.ctx.RoundIndex != 2 {
		t.Fatalf(
			"continue must begin round 2, stage=%s round=%d",
			gm.ctx.GameStage, gm.ctx.RoundIndex,
		)
	}

	playRound(t, gm, "carol")
	drive(t, gm, continueReq())

	if gm.ctx.GameStage != STAGE_END_GAME {
		t.Fatalf("running out of content must end the game, got %s", gm.ctx.GameStage)
	}
}

func TestContinue_AdvancesAndClearsResult(t *testing.T) {
	gm := newTestMachine(t, testSettings(2), fixedRounds(testMessages("bob", "carol")))

	drive(t, gm, startReq("alice"))
	playRound(t, gm, "bob")

	if gm.ctx.LastResult == nil {
		t.Fatalf("summary must present the round result")
	}

	drive(t, gm, continueReq())

	if gm.ctx.GameStage != STAGE_INITIAL_GUESS || gm.ctx.RoundIndex != 2 {
		t.Fatalf(
			"continue must advance to the next round, stage=%s round=%d",
			gm.ctx.GameStage, gm.ctx.RoundIndex,
		)
	}

	if gm.ctx.LastResult != nil {
		t.Fatalf("entering a new round must clear the previous result")
	}

	if gm.ctx.InitialGuess != "" || gm.ctx.CurrentGuess != "" || gm.ctx.LockedIn {
		t.Fatalf("round state must reset for the new round")
	}
}

func TestSummary_TimeoutAutoAdvances(t *testing.T) {
	settings := testSettings(2)
	gm := newTestMachine(t, settings, fixedRounds(testMessages("bob", "carol")))

	drive(t, gm, startReq("alice"))
	playRound(t, gm, "bob")

	for i := 0; i < settings.SummarySeconds; i++ {
		drive(t, gm, tickReq(STAGE_ROUND_SUMMARY))
	}

	if gm.ctx.GameStage != STAGE_INITIAL_GUESS || gm.ctx.RoundIndex != 2 {
		t.Fatalf(
			"summary timeout must auto-advance, stage=%s round=%d",
			gm.ctx.GameStage, gm.ctx.RoundIndex,
		)
	}
}

func TestPlayAgain_ReturnsToLobbyAndNextStartResetsScores(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	drive(t, gm, startReq("alice"))
	playRound(t, gm, "bob")
	drive(t, gm, continueReq())

	if gm.ctx.GameStage != STAGE_END_GAME {
		t.Fatalf("one-round game must end after the summary, got %s", gm.ctx.GameStage)
	}

	drive(t, gm, playAgainReq())

	if gm.ctx.GameStage != STAGE_LOBBY {
		t.Fatalf("play again must return to Lobby, got %s", gm.ctx.GameStage)
	}

	// 大厅里还能看到上一局的得分，开局的瞬间才清零
	if got := gm.ctx.Players["alice"].Score; got != SCORE_FIRST_TRY {
		t.Fatalf("lobby must keep last game's score, want %d got %d", SCORE_FIRST_TRY, got)
	}

	drive(t, gm, startReq("alice"))

	if got := gm.ctx.Players["alice"].Score; got != 0 {
		t.Fatalf("new game must reset scores, got %d", got)
	}

	if gm.ctx.GameStage != STAGE_INITIAL_GUESS || gm.ctx.RoundIndex != 1 {
		t.Fatalf(
			"new game must begin at round 1, stage=%s round=%d",
			gm.ctx.GameStage, gm.ctx.RoundIndex,
		)
	}
}

func TestRosterUpdate_MidRoundPreservesGuessAndOptions(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	drive(t, gm, startReq("alice"))
	drive(t, gm, selectReq("carol"))
	drive(t, gm, lockInReq())

	optionsBefore := append([]Player(nil), gm.ctx.Options...)

	// carol 离开语音频道
	drive(t, gm, rosterReq(testRoster()[:2], "alice"))

	if _, ok := gm.ctx.Players["carol"]; ok {
		t.Fatalf("departed player must leave the roster")
	}

	if gm.ctx.GameStage != STAGE_MULTIPLE_CHOICE {
		t.Fatalf("roster update must not disturb the stage, got %s", gm.ctx.GameStage)
	}

	if gm.ctx.InitialGuess != "carol" || gm.ctx.CurrentGuess != "carol" {
		t.Fatalf(
			"frozen guesses must survive roster churn, initial=%q current=%q",
			gm.ctx.InitialGuess, gm.ctx.CurrentGuess,
		)
	}

	if len(gm.ctx.Options) != len(optionsBefore) {
		t.Fatalf(
			"options for the running round must not regenerate, want %d got %d",
			len(optionsBefore), len(gm.ctx.Options),
		)
	}
}

func TestRosterUpdate_PreservesScoresAndRefreshesNames(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	gm.ctx.Players["alice"].Score = 4

	updated := testRoster()
	updated[0].Name = "Alice Renamed"
	updated = append(updated, Player{ID: "dave", Name: "Dave"})

	drive(t, gm, rosterReq(updated, "alice"))

	alice := gm.ctx.Players["alice"]
	if alice.Score != 4 {
		t.Fatalf("roster update must not touch scores, got %d", alice.Score)
	}

	if alice.Name != "Alice Renamed" {
		t.Fatalf("roster update must refresh display names, got %q", alice.Name)
	}

	dave, ok := gm.ctx.Players["dave"]
	if !ok || dave.Score != 0 {
		t.Fatalf("newcomer must join with zero score, got %+v", dave)
	}

	if len(gm.ctx.PlayerOrder) != 4 || gm.ctx.PlayerOrder[3] != "dave" {
		t.Fatalf("player order must follow the provider, got %v", gm.ctx.PlayerOrder)
	}
}

func TestExit_AbandonsRoundWithoutResult(t *testing.T) {
	applied := 0

	gm := NewGameMachine(MachineParams{
		SessionID:     "test-session",
		LocalPlayerID: "alice",
		HostID:        "alice",
		Roster:        testRoster(),
		Settings:      testSettings(1),
		FetchRounds:   fixedRounds(testMessages("bob")),
		ApplyScore: func(ctx *GameContext, result *RoundResult) {
			applied++
		},
	}, make(chan struct{}))

	gm.handler.OnEnter(gm.ctx)
	t.Cleanup(gm.ctx.StopTicker)

	respCh := make(chan ResponseWrapper, 8)
	gm.ctx.RespCh = respCh

	drive(t, gm, startReq("alice"))
	drive(t, gm, selectReq("bob"))
	drive(t, gm, lockInReq())

	drive(t, gm, RequestWrapper{
		ReqType:    REQ_EXIT_GAME,
		NativeData: &ExitGameRequest{PlayerID: "alice", RespCh: respCh},
	})

	if !gm.ctx.Exited {
		t.Fatalf("local exit must finish the machine")
	}

	if applied != 0 || gm.ctx.LastResult != nil {
		t.Fatalf(
			"abandoned round must produce no result, applied=%d result=%+v",
			applied, gm.ctx.LastResult,
		)
	}
}

func TestExit_FromSupersededConnectionKeepsSessionAlive(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	oldCh := make(chan ResponseWrapper, 8)
	gm.ctx.RespCh = oldCh

	// 重连：状态机关闭旧通道，换上新连接的通道
	newCh := make(chan ResponseWrapper, 8)
	drive(t, gm, RequestWrapper{
		ReqType: REQ_JOIN_GAME,
		NativeData: &JoinGameRequest{
			SessionID:  "test-session",
			PlayerID:   "alice",
			PlayerName: "Alice",
			RespCh:     newCh,
		},
	})

	// 被顶替的旧连接随后断开，带着已关闭的通道送来退出请求
	drive(t, gm, RequestWrapper{
		ReqType:    REQ_EXIT_GAME,
		NativeData: &ExitGameRequest{PlayerID: "alice", RespCh: oldCh},
	})

	if gm.ctx.Exited {
		t.Fatalf("stale exit from a superseded connection must not end the session")
	}

	if gm.ctx.RespCh != newCh {
		t.Fatalf("live channel must stay attached after a stale exit")
	}

	// 状态机必须还能继续服务新连接
	drive(t, gm, startReq("alice"))

	if gm.ctx.GameStage != STAGE_INITIAL_GUESS {
		t.Fatalf("machine must keep serving after a stale exit, got %s", gm.ctx.GameStage)
	}
}

func TestJoin_RejectedForForeignPlayer(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	err := driveErr(gm, RequestWrapper{
		ReqType: REQ_JOIN_GAME,
		NativeData: &JoinGameRequest{
			SessionID: "test-session",
			PlayerID:  "bob",
			RespCh:    make(chan ResponseWrapper, 8),
		},
	})

	if err == nil {
		t.Fatalf("a machine must only accept its own player")
	}
}

func TestJoin_ReconnectReplacesOldChannel(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	oldCh := make(chan ResponseWrapper, 8)
	gm.ctx.RespCh = oldCh

	newCh := make(chan ResponseWrapper, 8)

	drive(t, gm, RequestWrapper{
		ReqType: REQ_JOIN_GAME,
		NativeData: &JoinGameRequest{
			SessionID:  "test-session",
			PlayerID:   "alice",
			PlayerName: "Alice",
			RespCh:     newCh,
		},
	})

	select {
	case _, open := <-oldCh:
		if open {
			t.Fatalf("old channel must be closed, not written to")
		}
	default:
		t.Fatalf("old channel must be closed on reconnect")
	}

	resp := <-newCh
	if resp.RespType != RESP_JOIN_GAME {
		t.Fatalf("reconnect must be acknowledged first, got %s", resp.RespType)
	}

	resp = <-newCh
	if resp.RespType != RESP_GAME_STATE {
		t.Fatalf("reconnect must be followed by a full snapshot, got %s", resp.RespType)
	}
}

func TestEndGame_SnapshotCarriesRanking(t *testing.T) {
	gm := newTestMachine(t, testSettings(1), fixedRounds(testMessages("bob")))

	drive(t, gm, startReq("alice"))
	playRound(t, gm, "bob")

	respCh := make(chan ResponseWrapper, 8)
	gm.ctx.RespCh = respCh

	drive(t, gm, continueReq())

	var notif *GameStateNotification
	for len(respCh) > 0 {
		resp := <-respCh
		if resp.RespType == RESP_GAME_STATE {
			if state, ok := resp.Data.(GameStateNotification); ok {
				notif = &state
			}
		}
	}

	if notif == nil || notif.Stage != STAGE_END_GAME {
		t.Fatalf("end of game must push a final snapshot")
	}

	if len(notif.Ranking) != 3 {
		t.Fatalf("final snapshot must rank every player, got %d", len(notif.Ranking))
	}

	if notif.Ranking[0].PlayerID != "alice" || !notif.Ranking[0].IsWinner {
		t.Fatalf("sole scorer must top the ranking, got %+v", notif.Ranking[0])
	}
}
