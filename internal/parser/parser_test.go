package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/internetimagery/donot/internal/ast"
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/lexer"
)

func parse(t *testing.T, input string) *ast.Comprehension {
	t.Helper()
	comp, err := New(lexer.New(input)).ParseComprehension()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return comp
}

func TestComprehensions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			"x for x in just(1)",
			"(x for x in just(1))",
		},
		{
			"x + y for x in just(1) for y in just(2)",
			"((x + y) for x in just(1) for y in just(2))",
		},
		{
			"x for x in just(5) if x > 3",
			"(x for x in just(5) if (x > 3))",
		},
		{
			"x for x in just(5) if !done",
			"(x for x in just(5) if (!done))",
		},
		{
			"(a, b) for (a, b) in pairs",
			"((a, b) for (a, b) in pairs)",
		},
		{
			"a + b + c for (a, (b, c)) in just((1, (2, 3)))",
			"(((a + b) + c) for (a, (b, c)) in just((1, (2, 3))))",
		},
		{
			`"hey" if x > 1 else "ho" for x in just(2)`,
			`(("hey" if (x > 1) else "ho") for x in just(2))`,
		},
		{
			"a if p else b if q else c for x in src",
			"((a if p else (b if q else c)) for x in src)",
		},
		{
			"[x, x * 2] for x in list(1, 2)",
			"([x, (x * 2)] for x in list(1, 2))",
		},
		{
			"x % 2 == 0 && x < 10 for x in nums",
			"((((x % 2) == 0) && (x < 10)) for x in nums)",
		},
		{
			"v for v in just(1) for v in just(v + 1)",
			"(v for v in just(1) for v in just((v + 1)))",
		},
		// Ternary inside a guard needs grouping; grouped it parses.
		{
			"x for x in src if (a if p else b)",
			"(x for x in src if (a if p else b))",
		},
		{
			"f(x, -y) for x in src",
			"(f(x, (-y)) for x in src)",
		},
	}

	for _, tt := range tests {
		comp := parse(t, tt.input)
		if diff := cmp.Diff(tt.want, comp.String()); diff != "" {
			t.Errorf("parse %q mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestGuardIfIsNotTernary(t *testing.T) {
	// The 'if' after the source is a guard clause even though a ternary
	// would also be grammatical.
	comp := parse(t, "x for x in src if cond")
	if len(comp.Clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(comp.Clauses))
	}
	if _, ok := comp.Clauses[1].(*ast.IfClause); !ok {
		t.Fatalf("second clause = %T, want *ast.IfClause", comp.Clauses[1])
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.Code
	}{
		{"x + y", diagnostics.ErrP002},
		{"42", diagnostics.ErrP002},
		{"x for 1 in src", diagnostics.ErrP003},
		{"x for (a) in src", diagnostics.ErrP003},
		{"x if c for x in src", diagnostics.ErrP004},
		{"x for x in src extra", diagnostics.ErrP001},
		{"x for x in", diagnostics.ErrP001},
		{"x for x src", diagnostics.ErrP001},
		{"x @ y for x in src", diagnostics.ErrL001},
	}

	for _, tt := range tests {
		_, err := New(lexer.New(tt.input)).ParseComprehension()
		if err == nil {
			t.Errorf("parse %q: no error, want %s", tt.input, tt.code)
			continue
		}
		if got := diagnostics.CodeOf(err); got != tt.code {
			t.Errorf("parse %q: code = %s, want %s (err: %v)", tt.input, got, tt.code, err)
		}
	}
}

func TestPatternNames(t *testing.T) {
	comp := parse(t, "a for (a, (b, c)) in src")
	fc := comp.Clauses[0].(*ast.ForClause)
	got := fc.Pattern.Names()
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pattern names mismatch (-want +got):\n%s", diff)
	}
}
