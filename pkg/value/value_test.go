package value

import "testing"

func TestSingletons(t *testing.T) {
	if !Nil.IsNil() {
		t.Errorf("Nil.IsNil() = false, want true")
	}
	if !True.AsBool() || False.AsBool() {
		t.Errorf("True/False boxed incorrectly")
	}
	if Nil.IsNumber() || Nil.IsObj() {
		t.Errorf("Nil misclassified as number or object")
	}
}

func TestNumberRoundTrip(t *testing.T) {
	tests := []float64{0, 1, -1, 3.5, -3.5, 1e300, -1e-300}
	for _, f := range tests {
		v := Number(f)
		if !v.IsNumber() {
			t.Fatalf("Number(%v).IsNumber() = false", f)
		}
		if got := v.AsNumber(); got != f {
			t.Errorf("Number(%v).AsNumber() = %v", f, got)
		}
	}
}

func TestEqualNaN(t *testing.T) {
	nan := Number(nan())
	if nan.Equal(nan) {
		t.Errorf("NaN.Equal(NaN) = true, want false")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestFalsey(t *testing.T) {
	tests := []struct {
		v       Value
		falsey  bool
	}{
		{Nil, true},
		{False, true},
		{True, false},
		{Number(0), false},
		{Number(1), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsFalsey(); got != tt.falsey {
			t.Errorf("IsFalsey() = %v, want %v", got, tt.falsey)
		}
	}
}
