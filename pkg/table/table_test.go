package table

import (
	"testing"

	"github.com/crowlang/crow/pkg/value"
)

func TestSetGetDelete(t *testing.T) {
	tb := New()
	k1, k2 := value.Number(1), value.Number(2)

	if !tb.Set(k1, 1, value.Number(100)) {
		t.Fatalf("Set on new key should report true")
	}
	if tb.Set(k1, 1, value.Number(200)) {
		t.Fatalf("Set on existing key should report false")
	}
	got, ok := tb.Get(k1, 1)
	if !ok || got.AsNumber() != 200 {
		t.Fatalf("Get(k1) = %v, %v; want 200, true", got, ok)
	}
	if _, ok := tb.Get(k2, 2); ok {
		t.Fatalf("Get(k2) found an absent key")
	}
	if !tb.Delete(k1, 1) {
		t.Fatalf("Delete(k1) should report true")
	}
	if _, ok := tb.Get(k1, 1); ok {
		t.Fatalf("Get(k1) found a deleted key")
	}
}

func TestGrowthPreservesEntries(t *testing.T) {
	tb := New()
	for i := 0; i < 200; i++ {
		tb.Set(value.Number(float64(i)), uint32(i), value.Number(float64(i*2)))
	}
	for i := 0; i < 200; i++ {
		got, ok := tb.Get(value.Number(float64(i)), uint32(i))
		if !ok || got.AsNumber() != float64(i*2) {
			t.Fatalf("Get(%d) = %v, %v; want %d, true", i, got, ok, i*2)
		}
	}
	if tb.Count() != 200 {
		t.Fatalf("Count() = %d, want 200", tb.Count())
	}
}

func TestTombstoneReuseAllowsReinsertion(t *testing.T) {
	tb := New()
	k := value.Number(1)
	tb.Set(k, 1, value.Number(1))
	tb.Delete(k, 1)
	if !tb.Set(k, 1, value.Number(2)) {
		t.Fatalf("Set after delete should report true (new key)")
	}
	got, ok := tb.Get(k, 1)
	if !ok || got.AsNumber() != 2 {
		t.Fatalf("Get(k) = %v, %v; want 2, true", got, ok)
	}
}

func TestAddAll(t *testing.T) {
	src, dst := New(), New()
	src.Set(value.Number(1), 1, value.Number(10))
	src.Set(value.Number(2), 2, value.Number(20))
	src.AddAll(dst)
	if got, ok := dst.Get(value.Number(1), 1); !ok || got.AsNumber() != 10 {
		t.Fatalf("AddAll did not copy key 1")
	}
	if got, ok := dst.Get(value.Number(2), 2); !ok || got.AsNumber() != 20 {
		t.Fatalf("AddAll did not copy key 2")
	}
}

func TestRemoveUnmarked(t *testing.T) {
	tb := New()
	tb.Set(value.Number(1), 1, value.Nil)
	tb.Set(value.Number(2), 2, value.Nil)
	tb.RemoveUnmarked(func(key value.Value) bool {
		return key.AsNumber() == 1
	})
	if _, ok := tb.Get(value.Number(1), 1); !ok {
		t.Fatalf("marked key 1 was removed")
	}
	if _, ok := tb.Get(value.Number(2), 2); ok {
		t.Fatalf("unmarked key 2 survived")
	}
}
