package engine

import (
	"testing"
	"time"
)

func TestScore_Endpoints(t *testing.T) {
	cases := []struct {
		rank int
		want int
	}{
		{-3, 0},
		{0, 0},
		{1, 1000},
		{10000, 1},
		{50000, 1},
	}
	for _, tc := range cases {
		if got := Score(tc.rank); got != tc.want {
			t.Fatalf("Score(%d) = %d, want %d", tc.rank, got, tc.want)
		}
	}
}

func TestScore_NonIncreasing(t *testing.T) {
	prev := Score(1)
	for rank := 2; rank <= 20000; rank++ {
		got := Score(rank)
		if got > prev {
			t.Fatalf("Score(%d)=%d > Score(%d)=%d", rank, got, rank-1, prev)
		}
		if got < 1 {
			t.Fatalf("Score(%d)=%d below floor", rank, got)
		}
		prev = got
	}
}

func TestIsRoundOver(t *testing.T) {
	s := NewEmptyState("ABC123")
	if IsRoundOver(s, t0.Add(time.Hour)) {
		t.Fatalf("inactive room can never be over")
	}

	s.Active = true
	s.StartTime = t0
	if IsRoundOver(s, t0) {
		t.Fatalf("over immediately after start")
	}
	if IsRoundOver(s, t0.Add(RoundDuration-time.Nanosecond)) {
		t.Fatalf("over before the full duration")
	}
	if !IsRoundOver(s, t0.Add(RoundDuration)) {
		t.Fatalf("not over at exactly the duration")
	}
}

func TestTimeRemaining(t *testing.T) {
	s := NewEmptyState("ABC123")
	if got := TimeRemaining(s, t0); got != 60 {
		t.Fatalf("idle: got %d, want 60", got)
	}

	s.Active = true
	s.StartTime = t0
	if got := TimeRemaining(s, t0.Add(15500*time.Millisecond)); got != 44 {
		t.Fatalf("mid round: got %d, want 44", got)
	}
	if got := TimeRemaining(s, t0.Add(2*time.Minute)); got != 0 {
		t.Fatalf("past end: got %d, want 0", got)
	}
}

func TestWinner(t *testing.T) {
	s := NewEmptyState("ABC123")
	if _, ok := Winner(s); ok {
		t.Fatalf("empty room has no winner")
	}

	s = AddPlayer(s, Player{ID: "late", Score: 500, Seq: 3})
	s = AddPlayer(s, Player{ID: "early", Score: 500, Seq: 1})
	s = AddPlayer(s, Player{ID: "low", Score: 10, Seq: 2})

	w, ok := Winner(s)
	if !ok || w.Score != 500 {
		t.Fatalf("want a 500-point winner, got %+v", w)
	}
	if w.ID != "early" {
		t.Fatalf("tie should go to the earliest joiner, got %s", w.ID)
	}
}
