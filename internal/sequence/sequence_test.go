package sequence

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestOnlyLatestTokenIsCurrent(t *testing.T) {
	var s Sequencer
	t1 := s.Issue()
	t2 := s.Issue()
	t3 := s.Issue()

	if !(t1 < t2 && t2 < t3) {
		t.Fatalf("expected increasing tokens, got %d %d %d", t1, t2, t3)
	}
	// Arrival order must not matter.
	for _, tok := range []Token{t3, t1, t2} {
		want := tok == t3
		if got := s.IsCurrent(tok); got != want {
			t.Fatalf("IsCurrent(%d)=%v want=%v", tok, got, want)
		}
	}
}

func TestZeroTokenIsNeverCurrent(t *testing.T) {
	var s Sequencer
	if s.IsCurrent(0) {
		t.Fatalf("zero token must not be current before any issue")
	}
}

func TestConcurrentIssueYieldsUniqueTokens(t *testing.T) {
	var s Sequencer
	const workers = 16
	const perWorker = 200

	var mu sync.Mutex
	seen := map[Token]struct{}{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Token, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, s.Issue())
			}
			mu.Lock()
			for _, tok := range local {
				seen[tok] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d unique tokens, got %d", workers*perWorker, len(seen))
	}
	if !s.IsCurrent(Token(workers * perWorker)) {
		t.Fatalf("expected last token %d current, latest is %d", workers*perWorker, s.Latest())
	}
}

func TestFollowDropsSupersededResults(t *testing.T) {
	var s Sequencer
	slow := make(chan string, 1)
	fast := make(chan string, 1)

	first := Follow(context.Background(), &s, slow)
	second := Follow(context.Background(), &s, fast)

	fast <- "new"
	got, ok := <-second
	if !ok || got.Value != "new" {
		t.Fatalf("expected newest result delivered, got %#v ok=%v", got, ok)
	}

	slow <- "old"
	if stale, ok := <-first; ok {
		t.Fatalf("expected stale result dropped, got %#v", stale)
	}
}

func TestFollowStopsOnContextCancel(t *testing.T) {
	var s Sequencer
	ctx, cancel := context.WithCancel(context.Background())
	out := Follow(ctx, &s, make(chan int))
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Follow did not stop after cancel")
	}
}

func TestStampedCurrent(t *testing.T) {
	var s Sequencer
	st := Stamped[int]{Token: s.Issue(), Value: 1}
	if !st.Current(&s) {
		t.Fatalf("expected stamped result current")
	}
	s.Issue()
	if st.Current(&s) {
		t.Fatalf("expected stamped result stale after newer issue")
	}
}
