package engine

import (
	"errors"
	"testing"

	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/scope"
)

func TestIfPredicates(t *testing.T) {
	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"equal", `hello --equal hello`, true},
		{"not equal", `hello --equal world`, false},
		{"find ignores case", `"Hello World" --find world`, true},
		{"find missing", `hello --find xyz`, false},
		{"regex", `abc123 --regex "^[a-z]+[0-9]+$"`, true},
		{"numeric lt", `9 --lt 10`, true},
		{"lexicographic lt", `b --lt a`, false},
		{"numeric ge", `10 --ge 10`, true},
		{"gt", `2.5 --gt 2`, true},
		{"le", `3 --le 2`, false},
		{"ismember by tag", `ada#0002 --ismember`, true},
		{"ismember by mention", `<@100> --ismember`, true},
		{"ismember unknown", `nobody --ismember`, false},
		{"isrole", `Moderator --isrole`, true},
		{"ischannel", `"<#21>" --ischannel`, true},
		{"hasroles any", `owner --hasroles Member Moderator`, true},
		{"hasroles none", `ada --hasroles Moderator`, false},
		{"isdate", `2024-02-29 --isdate`, true},
		{"isdate invalid", `2023-02-29 --isdate`, false},
		{"format", `https://example.com --format url`, true},
		{"format mismatch", `"#zzz" --format hex_color`, false},
		{"truthy", `yes`, true},
		{"falsy zero", `0`, false},
		{"falsy empty", `""`, false},
		{"not inverts", `a --equal b --not`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.run(t, "if "+tt.cond+"\nsay then\nelse\nsay else\nendif", scope.Guest)

			want := "else"
			if tt.want {
				want = "then"
			}
			assertTexts(t, env.recorder.Texts(), want)
			if reports := env.recorder.Reports(); len(reports) != 0 {
				t.Errorf("unexpected reports: %v", reports)
			}
		})
	}
}

func TestIfInsetPredicate(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `set_variable fruits --setadd apple pear
if pear --inset fruits
say found
endif
if plum --inset fruits
say wrong
endif`, scope.Guest)
	assertTexts(t, env.recorder.Texts(), "found")
}

func TestNestedIfWithNot(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `if yes --equal yes
  if a --equal b
    say inner-then
  else
    say inner-else
  endif
else
  say outer-else
endif
if x --equal y --not
  say inverted
endif`, scope.Guest)
	assertTexts(t, env.recorder.Texts(), "inner-else", "inverted")
}

func TestIfInsideSkippedBranchStaysBalanced(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `if a --equal b
  if c --equal c
    say nested
  else
    say nested-else
  endif
  say skipped
else
  say outer-else
endif
say after`, scope.Guest)
	assertTexts(t, env.recorder.Texts(), "outer-else", "after")
	if sc.Blocks().Len() != 0 {
		t.Errorf("open blocks after script: %v", sc.Blocks().Describe())
	}
}

func TestInvalidRegexIsFalseWithWarning(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `if abc --regex "["
say then
else
say else
endif
say after`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "else", "after")
	reports := env.recorder.Reports()
	if len(reports) != 1 || !perrors.IsWarning(reports[0]) {
		t.Errorf("reports = %v, want one evaluation warning", reports)
	}
	if sc.Aborted() {
		t.Error("an evaluation warning must not abort")
	}
}

func TestIfWithTwoPredicatesIsUsageError(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `if a --equal a --find a
say then
else
say else
endif
say after`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "after")
	var usage *perrors.UsageError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &usage) {
		t.Errorf("reports = %v, want one UsageError", reports)
	}
}

func TestForBindsElementsInOrder(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `for x --in a b c
say {{x}}
endfor`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "a", "b", "c")
	if sc.Blocks().Len() != 0 {
		t.Errorf("open blocks after loop: %v", sc.Blocks().Describe())
	}
	assertVar(t, sc, "x", "c")
}

func TestForStateCarriesAcrossIterations(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `set_variable total 0
for x --in 1 2 3 4
set_variable total --intadd {{x}}
if {{x}} --equal 2
say two
endif
endfor
say {{total}}`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "two", "10")
	assertVar(t, sc, "total", "10")
}

func TestForInsetIteratesInInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `set_variable s --setadd c a b a
for e --inset s
say {{e}}
endfor`, scope.Guest)
	assertTexts(t, env.recorder.Texts(), "c", "a", "b")
}

func TestForOverEmptySequenceSkipsBody(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `for e --inset nothing
say body
endfor
say after`, scope.Guest)
	assertTexts(t, env.recorder.Texts(), "after")
	if sc.Blocks().Len() != 0 {
		t.Errorf("open blocks after loop: %v", sc.Blocks().Describe())
	}
}

func TestNestedForIsRejected(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `for x --in a b
for y --in c d
say {{x}}{{y}}
endfor
endfor`, scope.Guest)

	if len(env.recorder.Texts()) != 0 {
		t.Errorf("sent %q, want nothing", env.recorder.Texts())
	}

	var unbalanced *perrors.UnbalancedBlockError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &unbalanced) || unbalanced.Line != 2 {
		t.Fatalf("reports = %v, want one UnbalancedBlockError on line 2", reports)
	}

	if sc.Blocks().Len() != 1 {
		t.Fatalf("block stack = %v, want the original for only", sc.Blocks().Describe())
	}
	loop, ok := sc.Blocks().Top().(*scope.ForBlock)
	if !ok || loop.Variable != "x" || len(loop.Remaining) != 1 || loop.Remaining[0] != "b" {
		t.Errorf("original for block changed: %+v", sc.Blocks().Top())
	}
	if !sc.Aborted() {
		t.Error("a structural error must stop the script")
	}
}

func TestStructuralErrorsStopScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		sent   []string
	}{
		{"stray endif", "say a\nendif\nsay b", []string{"a"}},
		{"stray else", "say a\nelse\nsay b", []string{"a"}},
		{"stray endfor", "say a\nendfor\nsay b", []string{"a"}},
		{"second else", "if a --equal a\nsay a\nelse\nelse\nsay b\nendif", []string{"a"}},
		{"endif closes for", "for x --in 1\nendif\nsay b", nil},
		{"unclosed if", "if a --equal a\nsay a", []string{"a"}},
		{"unclosed for", "for x --in 1 2\nsay {{x}}", []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			sc := env.run(t, tt.script, scope.Guest)

			assertTexts(t, env.recorder.Texts(), tt.sent...)
			if !sc.Aborted() {
				t.Error("expected the script to stop")
			}
			var unbalanced *perrors.UnbalancedBlockError
			reports := env.recorder.Reports()
			if len(reports) != 1 || !errors.As(reports[0], &unbalanced) {
				t.Errorf("reports = %v, want one UnbalancedBlockError", reports)
			}
		})
	}
}
