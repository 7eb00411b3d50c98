package session

import (
	"sync"
	"testing"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()

	if _, ok := s.Get("u1"); ok {
		t.Fatal("expected no session for fresh user")
	}

	s.Set("u1", PlanCreateCategory, nil)
	sess, ok := s.Get("u1")
	if !ok || sess.State != PlanCreateCategory {
		t.Fatalf("expected PLAN_CREATE_CATEGORY, got %v (ok=%v)", sess.State, ok)
	}

	s.UpdateData("u1", map[string]string{"category": "Lazer"})
	sess, _ = s.Get("u1")
	if sess.Data["category"] != "Lazer" {
		t.Fatalf("expected merged data, got %v", sess.Data)
	}
	if sess.State != PlanCreateCategory {
		t.Fatal("UpdateData must not change state")
	}

	// Set replaces data entirely
	s.Set("u1", PlanCreateAmount, map[string]string{"category": "Mercado"})
	sess, _ = s.Get("u1")
	if sess.State != PlanCreateAmount || sess.Data["category"] != "Mercado" {
		t.Fatalf("Set should replace session, got %+v", sess)
	}

	s.Clear("u1")
	if _, ok := s.Get("u1"); ok {
		t.Fatal("expected session cleared")
	}
}

func TestUpdateDataWithoutSession(t *testing.T) {
	s := NewStore()
	s.UpdateData("ghost", map[string]string{"k": "v"})
	if _, ok := s.Get("ghost"); ok {
		t.Fatal("UpdateData must be a no-op without a session")
	}
}

func TestPerUserLockSerializes(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock("u1")
			defer s.Unlock("u1")
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}
