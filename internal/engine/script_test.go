package engine

import (
	"errors"
	"strings"
	"testing"

	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/scope"
)

func TestScriptMergesVariablesBack(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `set_variable outer 1
script
set_variable inner {{outer}}
set_variable outer 2
endscript
say {{inner}}-{{outer}}`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "1-2")
	assertVar(t, sc, "inner", "1")
}

func TestScriptAbortPropagates(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `script
set_variable inner 1
if a --equal a
exit
endscript
say after`, scope.Guest)

	if !sc.Aborted() {
		t.Error("exit inside a script must abort the caller")
	}
	if sc.Blocks().Len() != 0 {
		t.Errorf("blocks leaked from the script body: %v", sc.Blocks().Describe())
	}
	assertVar(t, sc, "inner", "1")
	if len(env.recorder.Texts()) != 0 {
		t.Errorf("sent %q after exit", env.recorder.Texts())
	}
}

func TestScriptBlocksDoNotEscape(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `if a --equal a
script
if b --equal b
say inside
endscript
say after
endif`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "inside", "after")
	if sc.Aborted() {
		t.Error("an unbalanced body stops the body only")
	}
	if sc.Blocks().Len() != 0 {
		t.Errorf("open blocks after script: %v", sc.Blocks().Describe())
	}

	var unbalanced *perrors.UnbalancedBlockError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &unbalanced) {
		t.Errorf("reports = %v, want one UnbalancedBlockError from the body", reports)
	}
}

func TestScriptBodyLineNumbers(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `say first
script
nope
endscript`, scope.Guest)

	var unknown *perrors.UnknownCommandError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &unknown) || unknown.Line != 3 {
		t.Errorf("reports = %v, want UnknownCommandError on line 3", reports)
	}
}

func TestNestedScripts(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `script
set_variable depth 1
script
set_variable depth --intadd 1
endscript
endscript
say {{depth}}`, scope.Guest)

	assertTexts(t, env.recorder.Texts(), "2")
	if sc.Depth() != 0 {
		t.Errorf("top-level depth = %d", sc.Depth())
	}
}

func TestScriptWithoutTerminatorRunsToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "script\nsay one\nsay two", scope.Guest)
	assertTexts(t, env.recorder.Texts(), "one", "two")
}

func TestScriptWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "say a\nscript\nendscript\nsay b", scope.Guest)

	assertTexts(t, env.recorder.Texts(), "a", "b")
	var usage *perrors.UsageError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &usage) || !strings.Contains(usage.Message, "missing script body") {
		t.Errorf("reports = %v, want a missing body UsageError", reports)
	}
}

func TestSkippedScriptDoesNotRun(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `if a --equal b
script
say inside
endif
endscript
endif
say after`, scope.Guest)

	// the whole body, including its endif, belongs to the skipped script
	assertTexts(t, env.recorder.Texts(), "after")
	if reports := env.recorder.Reports(); len(reports) != 0 {
		t.Errorf("unexpected reports: %v", reports)
	}
}

func TestSilentScriptHidesReports(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `script --silent
nope
endscript
nope`, scope.Guest)

	output := env.output.String()
	if strings.Count(output, "unknown command") != 1 {
		t.Errorf("console output should report only the outer error:\n%s", output)
	}
	if len(env.recorder.Reports()) != 2 {
		t.Errorf("the recorder sees every report, got %v", env.recorder.Reports())
	}
}

func TestExitStopsScript(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, "say a\nexit\nsay b", scope.Guest)
	assertTexts(t, env.recorder.Texts(), "a")
	if !sc.Aborted() {
		t.Error("exit must abort")
	}
	if len(env.recorder.Reports()) != 0 {
		t.Errorf("exit is not an error: %v", env.recorder.Reports())
	}
}

func TestExitRejectsArguments(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, "exit now\nsay b", scope.Guest)
	assertTexts(t, env.recorder.Texts(), "b")
	if sc.Aborted() {
		t.Error("a rejected exit must not abort")
	}
}

func TestDeleteMessage(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, "script\ndelete_message\nendscript", scope.Guest)
	if !sc.DeleteRequested() {
		t.Error("delete_message in a script must reach the caller")
	}
}
