package service

import (
	"testing"
	"time"

	"guess-who-said-it-be/internal/provider/roster"
)

func TestParticipantsToPlayers_SkipsBots(t *testing.T) {
	participants := []roster.Participant{
		{ID: "u1", Name: "Alice", AvatarURL: "https://cdn.example/a.png"},
		{ID: "bot1", Name: "GameBot", Bot: true},
		{ID: "u2", Name: "Bob"},
	}

	players := participantsToPlayers(participants)

	if len(players) != 2 {
		t.Fatalf("bots must be filtered out, want 2 got %d", len(players))
	}

	if players[0].ID != "u1" || players[1].ID != "u2" {
		t.Fatalf("player order must follow the roster, got %v", players)
	}

	if players[0].AvatarURL != "https://cdn.example/a.png" {
		t.Fatalf("avatar must carry over, got %q", players[0].AvatarURL)
	}

	if players[0].Score != 0 {
		t.Fatalf("fresh players start at zero, got %d", players[0].Score)
	}
}

func TestHostIDOf_FirstHumanWins(t *testing.T) {
	participants := []roster.Participant{
		{ID: "bot1", Bot: true},
		{ID: "u2", Name: "Bob"},
		{ID: "u1", Name: "Alice"},
	}

	if got := hostIDOf(participants); got != "u2" {
		t.Fatalf("host must be the first human, got %q", got)
	}

	if got := hostIDOf(nil); got != "" {
		t.Fatalf("empty roster has no host, got %q", got)
	}
}

func TestIsSessionValid(t *testing.T) {
	if isSessionValid(nil) {
		t.Fatalf("nil session must be invalid")
	}

	occupied := &sessionEntry{
		createdAt: time.Now().Add(-24 * time.Hour),
		machines:  map[string]*machineEntry{"u1": {}},
	}
	if !isSessionValid(occupied) {
		t.Fatalf("session with machines must stay valid regardless of age")
	}

	fresh := &sessionEntry{
		createdAt: time.Now(),
		machines:  map[string]*machineEntry{},
	}
	if !isSessionValid(fresh) {
		t.Fatalf("fresh empty session must be kept for its TTL")
	}

	stale := &sessionEntry{
		createdAt: time.Now().Add(-EMPTY_SESSION_TTL - time.Minute),
		machines:  map[string]*machineEntry{},
	}
	if isSessionValid(stale) {
		t.Fatalf("stale empty session must be reaped")
	}
}
