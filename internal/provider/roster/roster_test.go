package roster

import "testing"

func TestHostOf_SkipsBots(t *testing.T) {
	participants := []Participant{
		{ID: "bot1", Name: "GameBot", Bot: true},
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
	}

	if got := hostOf(participants); got != "u1" {
		t.Fatalf("host must be the first human participant, got %q", got)
	}

	if got := hostOf([]Participant{{ID: "bot1", Bot: true}}); got != "" {
		t.Fatalf("bot-only channel has no host, got %q", got)
	}
}

func TestParticipantsEqual(t *testing.T) {
	a := []Participant{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
	b := []Participant{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}

	if !participantsEqual(a, b) {
		t.Fatalf("identical snapshots must compare equal")
	}

	b[1].Name = "Bobby"
	if participantsEqual(a, b) {
		t.Fatalf("renamed participant must break equality")
	}

	if participantsEqual(a, a[:1]) {
		t.Fatalf("different lengths must compare unequal")
	}
}

func TestMockProvider_NotifiesSubscribersOnChange(t *testing.T) {
	mp := NewMockProvider()

	notified := 0
	var last []Participant

	unsubscribe := mp.Subscribe(func(participants []Participant) {
		notified++
		last = participants
	})

	next := []Participant{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
	}

	mp.SetParticipants(next)

	if notified != 1 {
		t.Fatalf("want 1 notification, got %d", notified)
	}

	if !participantsEqual(last, next) {
		t.Fatalf("notification must carry the new snapshot, got %v", last)
	}

	// 取消订阅后不再收到通知，重复取消也必须安全
	unsubscribe()
	unsubscribe()

	mp.SetParticipants(next[:1])

	if notified != 1 {
		t.Fatalf("unsubscribed callback must not fire, got %d", notified)
	}
}

func TestMockProvider_HostAndCurrentUser(t *testing.T) {
	mp := NewMockProvider()

	participants, err := mp.Participants()
	if err != nil {
		t.Fatalf("participants should succeed, got: %v", err)
	}

	if len(participants) == 0 {
		t.Fatalf("mock roster must not be empty")
	}

	if !mp.IsHost(participants[0].ID) {
		t.Fatalf("first participant must be the host")
	}

	if mp.IsHost("") {
		t.Fatalf("empty ID must never be the host")
	}

	current, ok := mp.CurrentUser()
	if !ok || current.ID != participants[0].ID {
		t.Fatalf("mock current user must be the first participant, got %+v", current)
	}
}
