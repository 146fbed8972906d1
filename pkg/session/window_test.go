package session

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

func turn(role Role, text string) Turn {
	return Turn{Role: role, Text: text, ConversationID: "c"}
}

func texts(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = string(t.Role) + ":" + t.Text
	}
	return out
}

func TestNewWindow_RejectsInvalidCapacity(t *testing.T) {
	for _, n := range []int{-2, 0, 1, 3, 11} {
		if _, err := NewWindow(n); err == nil {
			t.Errorf("NewWindow(%d) succeeded, want error", n)
		}
	}
	for _, n := range []int{2, 4, 10} {
		if _, err := NewWindow(n); err != nil {
			t.Errorf("NewWindow(%d) error = %v", n, err)
		}
	}
}

func TestWindow_BoundAndPairwiseEviction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, capacity := range []int{2, 4, 6, 10} {
		t.Run(fmt.Sprintf("N=%d", capacity), func(t *testing.T) {
			w, _ := NewWindow(capacity)

			var all []Turn
			for i := range 200 {
				role := RoleUser
				// Mostly alternating, with occasional missing replies.
				if i%2 == 1 && rng.IntN(5) != 0 {
					role = RoleAssistant
				}
				tr := turn(role, fmt.Sprint(i))
				all = append(all, tr)

				before := w.Snapshot()
				evicted := w.Append(tr)

				if w.Len() > capacity {
					t.Fatalf("len %d exceeds capacity %d", w.Len(), capacity)
				}
				if evicted != 0 && evicted != 2 {
					t.Fatalf("evicted %d turns, want 0 or 2", evicted)
				}

				// The window is always a contiguous suffix of everything appended.
				got := w.Snapshot()
				want := append(before, tr)[evicted:]
				if fmt.Sprint(texts(got)) != fmt.Sprint(texts(want)) {
					t.Fatalf("window %v, want %v", texts(got), texts(want))
				}
			}
		})
	}
}

func TestWindow_AlternatingNeverStartsWithAssistant(t *testing.T) {
	w, _ := NewWindow(4)

	for i := range 50 {
		w.Append(turn(RoleUser, fmt.Sprint("u", i)))
		if got := w.Snapshot(); got[0].Role != RoleUser {
			t.Fatalf("window starts with %s after user append %d: %v", got[0].Role, i, texts(got))
		}
		w.Append(turn(RoleAssistant, fmt.Sprint("a", i)))
		if got := w.Snapshot(); got[0].Role != RoleUser {
			t.Fatalf("window starts with %s after assistant append %d: %v", got[0].Role, i, texts(got))
		}
	}
}

func TestWindow_ThreeExchangesWithCapacityFour(t *testing.T) {
	w, _ := NewWindow(4)

	w.Append(turn(RoleUser, "hi"))
	w.Append(turn(RoleAssistant, "reply1"))
	if w.Len() != 2 {
		t.Fatalf("len = %d, want 2", w.Len())
	}

	w.Append(turn(RoleUser, "how are you"))
	if n := w.Append(turn(RoleAssistant, "reply2")); n != 0 {
		t.Fatalf("evicted %d at exactly capacity, want 0", n)
	}
	if w.Len() != 4 {
		t.Fatalf("len = %d, want 4", w.Len())
	}

	if n := w.Append(turn(RoleUser, "third")); n != 2 {
		t.Fatalf("evicted %d, want 2", n)
	}
	w.Append(turn(RoleAssistant, "reply3"))

	want := []string{"user:how are you", "assistant:reply2", "user:third", "assistant:reply3"}
	if got := texts(w.Snapshot()); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("window = %v, want %v", got, want)
	}
}

func TestWindow_SnapshotIsCopy(t *testing.T) {
	w, _ := NewWindow(4)
	w.Append(turn(RoleUser, "hi"))

	snap := w.Snapshot()
	snap[0].Text = "changed"

	if w.Snapshot()[0].Text != "hi" {
		t.Error("snapshot mutation leaked into the window")
	}
}
