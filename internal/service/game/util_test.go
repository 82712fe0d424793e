package game

import "testing"

func TestShortID_ShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := ShortID()

		if len(id) != 8 {
			t.Fatalf("short id must be 8 characters, got %q", id)
		}

		if seen[id] {
			t.Fatalf("short id %q repeated", id)
		}
		seen[id] = true
	}
}
