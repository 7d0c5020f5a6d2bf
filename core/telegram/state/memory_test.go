package state

import (
	"sync"
	"testing"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager()
	const uid int64 = 42

	if m.InProgress(uid) {
		t.Fatal("fresh manager should have no session")
	}
	if got := m.Get(uid); got.Step != StepIdle {
		t.Fatalf("expected idle step, got %q", got.Step)
	}

	m.Set(uid, Step("collect_name"), nil)
	if !m.InProgress(uid) {
		t.Fatal("expected session in progress")
	}
	if got := m.Current(uid); got != Step("collect_name") {
		t.Fatalf("unexpected step %q", got)
	}

	// last-start-wins: Set discards anything collected before
	m.Set(uid, Step("collect_qty"), "draft")
	sess := m.Get(uid)
	if sess.Step != Step("collect_qty") || sess.Data != "draft" {
		t.Fatalf("unexpected session %+v", sess)
	}

	m.Clear(uid)
	if m.InProgress(uid) {
		t.Fatal("cleared session should be idle")
	}
}

func TestMemoryManagerUpdateClearsIdleSessions(t *testing.T) {
	m := NewMemoryManager()
	const uid int64 = 7

	m.Set(uid, Step("x"), 1)
	m.Update(uid, func(s *Session) {
		s.Step = StepIdle
		s.Data = nil
	})
	if m.InProgress(uid) {
		t.Fatal("idle session with nil data should be evicted")
	}
}

func TestMemoryManagerUpdateIsAtomicPerOperator(t *testing.T) {
	m := NewMemoryManager()
	const uid int64 = 9
	m.Set(uid, Step("counting"), 0)

	var wg sync.WaitGroup
	const n = 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			m.Update(uid, func(s *Session) {
				s.Data = s.Data.(int) + 1
			})
		}()
	}
	wg.Wait()

	if got := m.Get(uid).Data.(int); got != n {
		t.Fatalf("lost updates: got %d, want %d", got, n)
	}
}
