package utils

import (
	"sync/atomic"
	"testing"
)

func TestIDSetNoDuplicates(t *testing.T) {
	s := NewIDSet()

	added := s.Add("316600000")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("316600000")
	if added {
		t.Error("second Add of same id should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestIDSetIntersect(t *testing.T) {
	a := NewIDSet()
	b := NewIDSet()
	for _, id := range []string{"1", "2", "3"} {
		a.Add(id)
	}
	for _, id := range []string{"2", "3", "4"} {
		b.Add(id)
	}

	got := Intersect(a, b)
	if got.Size() != 2 {
		t.Errorf("intersection size: got %d, want 2", got.Size())
	}
	if !got.Contains("2") || !got.Contains("3") {
		t.Errorf("intersection missing expected ids: %v", got.Values())
	}
	if got.Contains("1") || got.Contains("4") {
		t.Errorf("intersection has unexpected ids: %v", got.Values())
	}
}

func TestIntersectEmptyInput(t *testing.T) {
	if got := Intersect(); got.Size() != 0 {
		t.Errorf("expected empty set for no inputs, got %d ids", got.Size())
	}
}

func TestIDSetConcurrency(t *testing.T) {
	s := NewIDSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("316600001") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
