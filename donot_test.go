package donot_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/internetimagery/donot"
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/pkg/monad"
	"github.com/internetimagery/donot/pkg/object"
)

func integer(v int64) object.Object { return &object.Integer{Value: v} }
func str(v string) object.Object    { return &object.String{Value: v} }

func tuple(vs ...object.Object) object.Object {
	return &object.Tuple{Elements: vs}
}

func evalWant(t *testing.T, src string, env donot.Env, want object.Object) {
	t.Helper()
	got, err := donot.Eval(src, env)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	if !object.Equals(got, want) {
		t.Errorf("eval %q = %s, want %s", src, got.Inspect(), want.Inspect())
	}
}

func TestMaybeExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  donot.Env
		want object.Object
	}{
		{
			"three binds",
			"(x, y, z) for x in just(1) for y in just(2) for z in just(3)",
			nil,
			monad.Just(tuple(integer(1), integer(2), integer(3))),
		},
		{
			"middle nothing short-circuits",
			"(x, y, z) for x in just(1) for y in nothing() for z in just(3)",
			nil,
			monad.Nothing(),
		},
		{
			"guard rejects",
			"x for x in just(1) if x > 3",
			nil,
			monad.Nothing(),
		},
		{
			"guard keeps",
			"x for x in just(5) if x > 3",
			nil,
			monad.Just(integer(5)),
		},
		{
			"negated guard",
			"x for x in just(5) if !(x > 9)",
			nil,
			monad.Just(integer(5)),
		},
		{
			"negated guard rejects truthy value",
			"(x, y) for x in just(10) if !x for y in just(20)",
			nil,
			monad.Nothing(),
		},
		{
			"ternary result",
			`"hey" if x > 1 else "ho" for x in just(2)`,
			nil,
			monad.Just(str("hey")),
		},
		{
			"ternary else branch",
			`"hey" if x > 1 else "ho" for x in just(0)`,
			nil,
			monad.Just(str("ho")),
		},
		{
			"shadowing rebinds",
			"v for v in just(1) for v in just(v + 1)",
			nil,
			monad.Just(integer(2)),
		},
		{
			"nearest binding travels as default",
			"(x, y) for x in just(1) for y in just(x + 10)",
			nil,
			monad.Just(tuple(integer(1), integer(11))),
		},
		{
			"destructuring nested tuple",
			"a + b + c for (a, (b, c)) in just((1, (2, 3)))",
			nil,
			monad.Just(integer(6)),
		},
		{
			"environment globals",
			"x * 2 for x in just(n)",
			donot.Env{"n": integer(21)},
			monad.Just(integer(42)),
		},
		{
			"guard over later level",
			"y for x in just(2) for y in just(x * 10) if y > x",
			nil,
			monad.Just(integer(20)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalWant(t, tt.src, tt.env, tt.want)
		})
	}
}

func TestResultExpressions(t *testing.T) {
	evalWant(t, "x + y for x in ok(1) for y in ok(2)", nil, monad.Ok(integer(3)))
	evalWant(t, `x for x in fail("boom") for x in ok(2)`, nil,
		monad.Fail(str("boom")))

	// Result exposes no filter.
	_, err := donot.Eval("x for x in ok(1) if x > 0", nil)
	if diagnostics.CodeOf(err) != diagnostics.ErrU003 {
		t.Errorf("guard over Result: err = %v, want %s", err, diagnostics.ErrU003)
	}
}

func TestListExpressions(t *testing.T) {
	evalWant(t, "(x, y) for x in list(1, 2) for y in list(10, 20)", nil,
		monad.NewList(
			tuple(integer(1), integer(10)),
			tuple(integer(1), integer(20)),
			tuple(integer(2), integer(10)),
			tuple(integer(2), integer(20)),
		))

	evalWant(t, "x * x for x in list(1, 2, 3, 4) if x % 2 == 0", nil,
		monad.NewList(integer(4), integer(16)))
}

func TestReaderExpressions(t *testing.T) {
	got, err := donot.Eval("a + b for a in ask() for b in ask()", nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	reader, ok := got.(*monad.Reader)
	if !ok {
		t.Fatalf("result = %T, want *monad.Reader", got)
	}
	if out := reader.Run(str("yo")); !object.Equals(out, str("yoyo")) {
		t.Errorf("run = %s, want \"yoyo\"", out.Inspect())
	}

	// Reader exposes no filter; the error surfaces before Run.
	_, err = donot.Eval("e for e in ask() if e > 1", nil)
	if diagnostics.CodeOf(err) != diagnostics.ErrU003 {
		t.Errorf("guard over Reader: err = %v, want %s", err, diagnostics.ErrU003)
	}
}

func TestUsageErrors(t *testing.T) {
	if _, err := donot.Do(nil, nil); diagnostics.CodeOf(err) != diagnostics.ErrU001 {
		t.Errorf("Do(nil) err = %v, want %s", err, diagnostics.ErrU001)
	}
	if _, err := donot.Do(&donot.Expr{}, nil); diagnostics.CodeOf(err) != diagnostics.ErrU001 {
		t.Errorf("Do(zero) err = %v, want %s", err, diagnostics.ErrU001)
	}

	// A source value outside the protocol entirely.
	_, err := donot.Eval("x for x in n", donot.Env{"n": integer(1)})
	if diagnostics.CodeOf(err) != diagnostics.ErrU002 {
		t.Errorf("plain integer source err = %v, want %s", err, diagnostics.ErrU002)
	}

	// Parse errors surface with their codes.
	_, err = donot.Eval("x + y", nil)
	if diagnostics.CodeOf(err) != diagnostics.ErrP002 {
		t.Errorf("clauseless source err = %v, want %s", err, diagnostics.ErrP002)
	}
	if !diagnostics.IsUsage(diagnostics.Newf(diagnostics.ErrU002, "")) {
		t.Error("ErrU002 not classified as usage")
	}
}

func TestWithHandler(t *testing.T) {
	var ops []string
	handler := func(op string, value object.Object, fn func(object.Object) object.Object) (object.Object, error) {
		ops = append(ops, op)
		switch m := value.(type) {
		case *monad.Maybe:
			switch op {
			case "map":
				return m.Map(fn), nil
			case "flat_map":
				return m.FlatMap(fn), nil
			case "filter":
				return m.Filter(fn), nil
			}
		}
		return nil, errors.New("unhandled")
	}

	got, err := donot.Eval("x + y for x in just(1) for y in just(2) if y > 0", nil,
		donot.WithHandler(handler))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !object.Equals(got, monad.Just(integer(3))) {
		t.Errorf("result = %s, want Just(3)", got.Inspect())
	}
	if len(ops) == 0 {
		t.Error("custom handler saw no operations")
	}
}

func TestDomainPanicsPropagate(t *testing.T) {
	// List flat_map panics when a callback yields a non-list; that
	// panic must cross the dispatch boundary untouched.
	defer func() {
		if recover() == nil {
			t.Fatal("domain panic was swallowed")
		}
	}()
	donot.Eval("x for x in list(1) for x in just(2)", nil)
}

func TestRuntimeErrorsInsideCallbacks(t *testing.T) {
	_, err := donot.Eval("x + y for x in just(1) for y in just(s)",
		donot.Env{"s": str("nope")})
	if diagnostics.CodeOf(err) != diagnostics.ErrR001 {
		t.Errorf("err = %v, want %s", err, diagnostics.ErrR001)
	}
}

func TestDisassembleListing(t *testing.T) {
	expr, err := donot.Parse("x for x in just(1) if x > 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	listing, err := donot.Disassemble(expr)
	if err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	for _, want := range []string{"<driver>", "<body>", "DISPATCH", "filter", "map", "ITER_NEXT"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q", want)
		}
	}
}

func TestConcurrentEval(t *testing.T) {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			got, err := donot.Eval("x + y for x in just(n) for y in just(n * 10)",
				donot.Env{"n": integer(n)})
			if err != nil {
				errs <- err
				return
			}
			if !object.Equals(got, monad.Just(integer(n*11))) {
				errs <- errors.New("wrong result: " + got.Inspect())
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
