package object

import (
	"testing"

	"github.com/crowlang/crow/pkg/value"
)

func TestStringRoundTrip(t *testing.T) {
	s := NewString("hello", HashString("hello"))
	v := FromString(s)
	if !IsString(v) {
		t.Fatalf("IsString(FromString(s)) = false")
	}
	if got := AsString(v); got.Chars != "hello" {
		t.Fatalf("AsString(v).Chars = %q, want hello", got.Chars)
	}
}

func TestHashStringStable(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Fatalf("HashString not stable across calls")
	}
	if HashString("abc") == HashString("abd") {
		t.Fatalf("HashString collided trivially")
	}
}

func TestClosureUpvalueSlots(t *testing.T) {
	fn := NewFunction()
	fn.UpvalueCount = 3
	c := NewClosure(fn)
	if len(c.Upvalues) != 3 {
		t.Fatalf("len(Upvalues) = %d, want 3", len(c.Upvalues))
	}
}

func TestInstanceFieldsIndependentPerInstance(t *testing.T) {
	class := NewClass(NewString("Point", HashString("Point")))
	a := NewInstance(class)
	b := NewInstance(class)
	nameVal := FromString(NewString("x", HashString("x")))
	a.Fields.Set(nameVal, HashString("x"), value.Number(1))
	if _, ok := b.Fields.Get(nameVal, HashString("x")); ok {
		t.Fatalf("instances shared a fields table")
	}
}

func TestStringifyScalars(t *testing.T) {
	tests := []struct {
		v    value.Value
		want string
	}{
		{value.Nil, "nil"},
		{value.True, "true"},
		{value.False, "false"},
		{value.Number(1), "1"},
		{value.Number(1.5), "1.5"},
		{value.Number(1.0 / 3.0), "0.333333"},
		{value.Number(100), "100"},
		{value.Number(1234567), "1.23457e+06"},
		{value.Number(0.0001), "0.0001"},
		{value.Number(0.00001), "1e-05"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.v); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
