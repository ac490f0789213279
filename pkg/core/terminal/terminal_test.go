package terminal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic_accounting/pkg/core/errs"
)

func testPolicy(t *testing.T) Policy {
	t.Helper()
	return Policy{
		AllowedRoot:      t.TempDir(),
		DefaultTimeoutMS: 5000,
		MaxOutputBytes:   1 << 16,
		HistoryLimit:     10,
	}
}

func TestBlacklistRefusesBeforeExec(t *testing.T) {
	e := NewExecutor(testPolicy(t))

	cases := []struct {
		name    string
		command string
		args    []string
		keyword string
	}{
		{"rm", "rm", []string{"-rf", "/"}, "rm"},
		{"rm by path", "/bin/rm", []string{"-rf", "/"}, "rm"},
		{"sudo", "sudo", []string{"id"}, "sudo"},
		{"ssh", "ssh", []string{"host"}, "ssh"},
		{"pipe in arg", "echo", []string{"a | b"}, "|"},
		{"subshell", "echo", []string{"$(id)"}, "$("},
		{"semicolon in command", "ls;id", nil, ";"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), Request{Command: tc.command, Arguments: tc.args, CaptureOutput: true})
			require.Error(t, err)
			assert.Equal(t, errs.KindBlocked, errs.KindOf(err))
			assert.Contains(t, err.Error(), "blocked_keyword: \""+tc.keyword+"\"")
		})
	}
}

func TestExecuteCapturesOutput(t *testing.T) {
	e := NewExecutor(testPolicy(t))
	result, err := e.Execute(context.Background(), Request{
		Command:       "echo",
		Arguments:     []string{"hello books"},
		CaptureOutput: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello books\n", result.Stdout)
	assert.False(t, result.Truncated)
}

func TestExecuteNonZeroExit(t *testing.T) {
	e := NewExecutor(testPolicy(t))
	result, err := e.Execute(context.Background(), Request{
		Command:       "false",
		CaptureOutput: true,
	})
	require.NoError(t, err, "a non-zero exit is a result, not an error")
	assert.Equal(t, 1, result.ExitCode)
}

func TestExecuteTimeoutKillsProcess(t *testing.T) {
	e := NewExecutor(testPolicy(t))
	start := time.Now()
	_, err := e.Execute(context.Background(), Request{
		Command:       "sleep",
		Arguments:     []string{"30"},
		TimeoutMS:     200,
		CaptureOutput: true,
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindTimeout, errs.KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second, "kill must not wait for the sleep")
}

func TestWorkingDirectoryJail(t *testing.T) {
	policy := testPolicy(t)
	e := NewExecutor(policy)

	sub := filepath.Join(policy.AllowedRoot, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	result, err := e.Execute(context.Background(), Request{
		Command: "pwd", WorkingDirectory: "sub", CaptureOutput: true,
	})
	require.NoError(t, err)
	t.Logf("resolved working dir: %s", result.WorkingDir)

	_, err = e.Execute(context.Background(), Request{
		Command: "pwd", WorkingDirectory: "/", CaptureOutput: true,
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindBlocked, errs.KindOf(err))
}

func TestOutputTruncation(t *testing.T) {
	policy := testPolicy(t)
	policy.MaxOutputBytes = 8
	e := NewExecutor(policy)

	result, err := e.Execute(context.Background(), Request{
		Command:       "echo",
		Arguments:     []string{"0123456789abcdef"},
		CaptureOutput: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, "01234567"+truncationMarker, result.Stdout)
}

func TestHistoryRecordsBlockedAndCompleted(t *testing.T) {
	e := NewExecutor(testPolicy(t))
	_, _ = e.Execute(context.Background(), Request{Command: "echo", Arguments: []string{"ok"}, CaptureOutput: true})
	_, _ = e.Execute(context.Background(), Request{Command: "rm", Arguments: []string{"-rf", "/"}})

	entries := e.History(0)
	require.Len(t, entries, 2)
	assert.Equal(t, historyBlocked, entries[0].Outcome, "newest first")
	assert.Equal(t, historyCompleted, entries[1].Outcome)
}

func TestValidateDoesNotExecute(t *testing.T) {
	e := NewExecutor(testPolicy(t))
	marker := filepath.Join(t.TempDir(), "marker")

	err := e.Validate(Request{Command: "touch", Arguments: []string{marker}})
	require.NoError(t, err)
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "validate must not run the command")
}
