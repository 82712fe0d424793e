package service

import (
	"testing"

	"guess-who-said-it-be/internal/provider/content"
	"guess-who-said-it-be/internal/provider/roster"
	"guess-who-said-it-be/internal/service/dto"
	"guess-who-said-it-be/internal/service/game"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()

	ss := NewSessionService(
		roster.NewMockProvider(),
		content.NewMockProvider(),
		game.Settings{
			MinPlayers:          3,
			TotalRounds:         10,
			InitialPhaseSeconds: 15,
			SummarySeconds:      5,
		},
	)
	t.Cleanup(ss.Close)

	return ss
}

func TestCreateSession_IssuesUniqueShortIDs(t *testing.T) {
	ss := newTestSessionService(t)

	seen := make(map[string]bool)

	for i := 0; i < 5; i++ {
		resp, err := ss.CreateSession(dto.CreateSessionRequest{SessionName: "friday night"})
		if err != nil {
			t.Fatalf("create session should succeed, got: %v", err)
		}

		if len(resp.SessionID) != 8 {
			t.Fatalf("session id must be 8 characters, got %q", resp.SessionID)
		}

		if seen[resp.SessionID] {
			t.Fatalf("duplicate session id %q", resp.SessionID)
		}
		seen[resp.SessionID] = true
	}
}

func TestCreateSession_RejectsEmptyName(t *testing.T) {
	ss := newTestSessionService(t)

	if _, err := ss.CreateSession(dto.CreateSessionRequest{}); err == nil {
		t.Fatalf("empty session name must be rejected")
	}
}
