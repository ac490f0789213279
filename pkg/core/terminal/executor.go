package terminal

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
)

// Request is one execute_terminal_command invocation after decoding.
type Request struct {
	Command          string
	Arguments        []string
	WorkingDirectory string
	TimeoutMS        int
	CaptureOutput    bool
	Environment      map[string]string
}

// Result is the outcome of a completed (or killed) command.
type Result struct {
	Command    string `json:"command"`
	ExitCode   int    `json:"exitCode"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	DurationMS int64  `json:"durationMs"`
	WorkingDir string `json:"workingDir"`
}

// Executor applies the policy, runs commands and records history.
type Executor struct {
	policy  Policy
	history *history
	log     *logrus.Entry
}

// NewExecutor builds an executor for one policy.
func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:  policy,
		history: newHistory(policy.HistoryLimit),
		log:     logrus.WithField("component", "terminal"),
	}
}

// Validate applies the full policy without executing anything.
func (e *Executor) Validate(req Request) error {
	if err := e.policy.CheckCommand(req.Command, req.Arguments); err != nil {
		return err
	}
	_, err := e.policy.ResolveWorkingDir(req.WorkingDirectory)
	return err
}

// Execute validates and runs one command in its own process group. On
// timeout the whole group is SIGKILLed and a Timeout error is returned.
// The policy check happens before any process is started.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	if err := e.policy.CheckCommand(req.Command, req.Arguments); err != nil {
		e.history.record(req, historyBlocked, err.Error())
		return Result{}, err
	}
	workDir, err := e.policy.ResolveWorkingDir(req.WorkingDirectory)
	if err != nil {
		e.history.record(req, historyBlocked, err.Error())
		return Result{}, err
	}

	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	if req.TimeoutMS <= 0 {
		timeout = time.Duration(e.policy.DefaultTimeoutMS) * time.Millisecond
	}

	cmd := exec.Command(req.Command, req.Arguments...)
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()
	for k, v := range req.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	if req.CaptureOutput {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		e.history.record(req, historyFailed, err.Error())
		return Result{}, errs.IOf("start %s: %v", req.Command, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killGroup(cmd)
		<-done
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		e.history.record(req, historyFailed, "cancelled")
		return Result{}, errs.Timeoutf("command %s cancelled by caller", req.Command)
	}
	duration := time.Since(start)

	if timedOut {
		e.history.record(req, historyTimeout, "")
		e.log.Warnf("killed %s after %v timeout", req.Command, timeout)
		return Result{}, errs.Timeoutf("command %s exceeded its %dms budget and was killed", req.Command, timeout.Milliseconds())
	}

	result := Result{
		Command:    req.Command,
		DurationMS: duration.Milliseconds(),
		WorkingDir: workDir,
	}
	if req.CaptureOutput {
		result.Stdout, result.Truncated = truncate(stdout.Bytes(), e.policy.MaxOutputBytes)
		var errTrunc bool
		result.Stderr, errTrunc = truncate(stderr.Bytes(), e.policy.MaxOutputBytes)
		result.Truncated = result.Truncated || errTrunc
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	} else if waitErr != nil {
		e.history.record(req, historyFailed, waitErr.Error())
		return Result{}, errs.IOf("wait for %s: %v", req.Command, waitErr)
	}

	e.history.record(req, historyCompleted, "")
	return result, nil
}

// History returns the most recent executions, newest first.
func (e *Executor) History(limit int) []HistoryEntry {
	return e.history.list(limit)
}

func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Negative pid targets the process group created by Setpgid.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

const truncationMarker = "\n...[output truncated]"

func truncate(data []byte, max int) (string, bool) {
	if max <= 0 || len(data) <= max {
		return string(data), false
	}
	return string(data[:max]) + truncationMarker, true
}
