package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) (string, string, InterpretResult) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	vm := New(&stdout, &stderr, Options{})
	result := vm.Interpret(source)
	return stdout.String(), stderr.String(), result
}

func TestArithmeticPrint(t *testing.T) {
	out, errs, result := run(t, "print 1 + 2;")
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "3\n", out)
}

func TestStringConcatLoop(t *testing.T) {
	source := `
var s = "x";
for (var i = 0; i < 3; i = i + 1) {
  s = s + i;
}
print s;
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "x012\n", out)
}

func TestClosureCounter(t *testing.T) {
	source := `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestSingleInheritanceSuperCall(t *testing.T) {
	source := `
class A {
  method() { return "A"; }
}
class B < A {
  method() { return super.method() + "B"; }
}
var b = B();
print b.method();
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "AB\n", out)
}

func TestInitializerWithField(t *testing.T) {
	source := `
class Box {
  init(v) { this.v = v; }
  get() { return this.v; }
}
var b = Box(7);
print b.get();
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "7\n", out)
}

func TestStringInterpolation(t *testing.T) {
	out, errs, result := run(t, `var n = 21; print "n=${n}!";`)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "n=21!\n", out)
}

func TestUnboundedRecursionOverflows(t *testing.T) {
	source := `
fun recurse() { return recurse(); }
recurse();
`
	_, errs, result := run(t, source)
	require.Equal(t, ResultRuntimeError, result)
	require.Contains(t, errs, "Stack overflow.")
	// frame 0 is the top-level script itself; frames 1..999 are the
	// 999 nested recurse() calls the check permits before refusing
	// the 1000th.
	require.Equal(t, maxFrames-1, strings.Count(errs, "in recurse"))
	require.Contains(t, errs, "in script")
}

func TestSwitchAndContinue(t *testing.T) {
	source := `
var out = "";
for (var i = 0; i < 5; i = i + 1) {
  if (i == 2) continue;
  switch (i) {
    case 0: out = out + "z";
    case 4: out = out + "f";
    default: out = out + str(i);
  }
}
print out;
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "z13f\n", out)
}

func TestTernary(t *testing.T) {
	out, errs, result := run(t, `print 1 < 2 ? "yes" : "no";`)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "yes\n", out)
}

func TestRuntimeErrorCapturesStackTrace(t *testing.T) {
	var stdout, stderr bytes.Buffer
	machine := New(&stdout, &stderr, Options{})
	result := machine.Interpret("fun f() { return 1 - nil; } f();")
	require.Equal(t, ResultRuntimeError, result)

	err := machine.LastError()
	require.NotNil(t, err)
	require.Equal(t, "Operands must be numbers.", err.Message)
	require.Equal(t, "f", err.StackTrace[0].Function)
	require.Equal(t, "script", err.StackTrace[len(err.StackTrace)-1].Function)

	require.Equal(t, ResultOK, machine.Interpret("print 1;"))
	require.Nil(t, machine.LastError())
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, "print missing;")
	require.Equal(t, ResultRuntimeError, result)
	require.Contains(t, errs, "Undefined variable 'missing'.")
}

func TestTypeMismatchIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, `print 1 + "a" + nil;`)
	// "a" is a string so ADD coerces nil via Stringify -- this only
	// errors once a genuinely non-coercible pairing occurs, so assert
	// the opposite case too: subtracting booleans does fail.
	require.Equal(t, ResultOK, result, "stderr: %s", errs)

	_, errs2, result2 := run(t, "print true - false;")
	require.Equal(t, ResultRuntimeError, result2)
	require.Contains(t, errs2, "Operands must be numbers.")
}

func TestFieldsAreLateBound(t *testing.T) {
	source := `
class Point {}
var p = Point();
p.x = 1;
p.y = 2;
print p.x + p.y;
`
	out, errs, result := run(t, source)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "3\n", out)
}

func TestStressGCKeepsReachableValuesAlive(t *testing.T) {
	source := `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
var counter = makeCounter();
var total = 0;
for (var i = 0; i < 50; i = i + 1) {
  total = total + counter();
}
print total;
`
	var stdout, stderr bytes.Buffer
	vm := New(&stdout, &stderr, Options{StressGC: true})
	result := vm.Interpret(source)
	require.Equal(t, ResultOK, result, "stderr: %s", stderr.String())
	require.Equal(t, "1275\n", stdout.String())
}

func TestNativeClockAndStr(t *testing.T) {
	out, errs, result := run(t, `print str(1) + str(true) + str(nil);`)
	require.Equal(t, ResultOK, result, "stderr: %s", errs)
	require.Equal(t, "1truenil\n", out)

	out2, errs2, result2 := run(t, "print clock() >= 0;")
	require.Equal(t, ResultOK, result2, "stderr: %s", errs2)
	require.Equal(t, "true\n", out2)
}

func TestReplSharesGlobalsAcrossInterpretCalls(t *testing.T) {
	var stdout, stderr bytes.Buffer
	vm := New(&stdout, &stderr, Options{})
	require.Equal(t, ResultOK, vm.Interpret("var x = 10;"))
	require.Equal(t, ResultOK, vm.Interpret("print x + 1;"), "stderr: %s", stderr.String())
	require.Equal(t, "11\n", stdout.String())
}
