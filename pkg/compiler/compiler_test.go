package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/globals"
	"github.com/crowlang/crow/pkg/object"
)

// fakeHeap is a minimal Heap for compiler tests: a real Table-backed
// interner isn't needed to exercise the compiler, just identity-stable
// strings keyed by content.
type fakeHeap struct {
	strings map[string]*object.String
}

func newFakeHeap() *fakeHeap {
	return &fakeHeap{strings: make(map[string]*object.String)}
}

func (h *fakeHeap) NewFunction() *object.Function {
	return object.NewFunction()
}

func (h *fakeHeap) InternString(s string) *object.String {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	str := object.NewString(s, object.HashString(s))
	h.strings[s] = str
	return str
}

func compileSource(t *testing.T, source string) (*object.Function, bool, string) {
	t.Helper()
	var stderr bytes.Buffer
	c := New(source, globals.New(), newFakeHeap(), &stderr)
	fn, ok := c.Compile()
	return fn, ok, stderr.String()
}

// disasm renders fn and, recursively, every nested function in its
// constants pool, so assertions can see opcodes emitted inside method
// and function bodies.
func disasm(fn *object.Function) string {
	var b strings.Builder
	var walk func(f *object.Function)
	walk = func(f *object.Function) {
		name := "<script>"
		if f.Name != nil {
			name = f.Name.Chars
		}
		b.WriteString(chunk.Disassemble(f.Chunk, name, func(idx int) int {
			return object.AsFunction(f.Chunk.Constants[idx]).UpvalueCount
		}))
		for _, c := range f.Chunk.Constants {
			if object.IsFunction(c) {
				walk(object.AsFunction(c))
			}
		}
	}
	walk(fn)
	return b.String()
}

func TestCompileArithmeticFusesSmallConstants(t *testing.T) {
	fn, ok, errs := compileSource(t, "print 1 + 1;")
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_ADD_ONE")
	require.NotContains(t, out, "OP_ADD\n")
}

func TestCompileNegateFusesConstantOne(t *testing.T) {
	fn, ok, errs := compileSource(t, "print -1;")
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_CONSTANT_NEGATIVE_ONE")
	require.NotContains(t, out, "OP_NEGATE")
}

func TestCompileEqualZeroFusion(t *testing.T) {
	fn, ok, errs := compileSource(t, "print 0 == 0;")
	require.True(t, ok, "compile errors: %s", errs)
	require.Contains(t, disasm(fn), "OP_EQUAL_ZERO")
}

func TestCompileGlobalVarRoundTrip(t *testing.T) {
	fn, ok, errs := compileSource(t, "var x = 5; x = x + 2; print x;")
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_DEFINE_GLOBAL")
	require.Contains(t, out, "OP_SET_GLOBAL")
	require.Contains(t, out, "OP_GET_GLOBAL")
}

func TestCompileFunctionDeclarationEmitsClosure(t *testing.T) {
	fn, ok, errs := compileSource(t, "fun add(a, b) { return a + b; } print add(1, 2);")
	require.True(t, ok, "compile errors: %s", errs)
	require.Contains(t, disasm(fn), "OP_CLOSURE")
}

func TestCompileClassAndMethodInvoke(t *testing.T) {
	source := `
class Greeter {
  init(name) {
    this.name = name;
  }
  greet() {
    return "hi " + this.name;
  }
}
var g = Greeter("Crow");
print g.greet();
`
	fn, ok, errs := compileSource(t, source)
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_CLASS")
	require.Contains(t, out, "OP_METHOD")
	require.Contains(t, out, "OP_GET_THIS")
	require.Contains(t, out, "OP_INVOKE")
}

func TestCompileSuperInvoke(t *testing.T) {
	source := `
class A { speak() { return "a"; } }
class B < A { speak() { return super.speak() + "b"; } }
`
	fn, ok, errs := compileSource(t, source)
	require.True(t, ok, "compile errors: %s", errs)
	require.Contains(t, disasm(fn), "OP_SUPER_INVOKE")
}

func TestCompileStringInterpolation(t *testing.T) {
	fn, ok, errs := compileSource(t, `var x = 1; print "count: ${x}!";`)
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_CALL")
	require.Contains(t, out, "OP_ADD")
}

func TestCompileTernary(t *testing.T) {
	fn, ok, errs := compileSource(t, "print true ? 1 : 2;")
	require.True(t, ok, "compile errors: %s", errs)

	out := disasm(fn)
	require.Contains(t, out, "OP_JUMP_IF_FALSE")
	require.Contains(t, out, "OP_JUMP")
}

func TestCompileWhileAndContinueClosesUpvalues(t *testing.T) {
	source := `
var i = 0;
while (i < 3) {
  var captured = i;
  fun show() { return captured; }
  if (i == 1) { i = i + 1; continue; }
  i = i + 1;
}
`
	fn, ok, errs := compileSource(t, source)
	require.True(t, ok, "compile errors: %s", errs)
	require.Contains(t, disasm(fn), "OP_CLOSE_UPVALUE")
}

func TestCompileForLoopContinueTargetsIncrement(t *testing.T) {
	fn, ok, errs := compileSource(t, "for (var i = 0; i < 3; i = i + 1) { if (i == 1) continue; print i; }")
	require.True(t, ok, "compile errors: %s", errs)
	require.Contains(t, disasm(fn), "OP_LOOP")
}

func TestCompileSwitchDuplicatesDiscriminant(t *testing.T) {
	fn, ok, errs := compileSource(t, `
var x = 1;
switch (x) {
  case 0: print "zero";
  case 1: print "one";
  default: print "other";
}
`)
	require.True(t, ok, "compile errors: %s", errs)
	out := disasm(fn)
	require.Contains(t, out, "OP_DUP")
	require.Contains(t, out, "OP_EQUAL")
}

func TestCompileEmptySwitchPopsDiscriminant(t *testing.T) {
	fn, ok, errs := compileSource(t, "switch (1) {}")
	require.True(t, ok, "compile errors: %s", errs)
	// Pushing the discriminant (a small constant) reaches a peak of 1
	// before the empty body's implicit pop brings height back to 0.
	require.Equal(t, 1, fn.Chunk.Slots)
}

func TestCompileErrorReporting(t *testing.T) {
	_, ok, errs := compileSource(t, "var x = ;")
	require.False(t, ok)
	require.True(t, strings.Contains(errs, "[line 1] Error"), "got: %s", errs)
}

func TestCompileContinueOutsideLoopIsError(t *testing.T) {
	_, ok, errs := compileSource(t, "continue;")
	require.False(t, ok)
	require.Contains(t, errs, "Can't use 'continue' outside of a loop.")
}

func TestCompileReturnFromTopLevelIsError(t *testing.T) {
	_, ok, errs := compileSource(t, "return 1;")
	require.False(t, ok)
	require.Contains(t, errs, "Can't return from top-level code.")
}
