package source

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if err := checkTerminal(); err != nil {
		t.Skipf("pseudo-terminals not available: %v", err)
	}
}

func TestCommand_Output(t *testing.T) {
	requireShell(t)
	var out syncBuffer
	err := NewCommand("sh", "-c", "echo hello").Run(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimRight(out.String(), "\r\n"))
}

func TestCommand_ExitCode(t *testing.T) {
	requireShell(t)
	var out syncBuffer
	err := NewCommand("sh", "-c", "printf oops; exit 3").Run(context.Background(), &out)

	var perr *ProcessError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, 3, perr.ExitCode)
	assert.Equal(t, "sh", perr.Name)
	assert.Equal(t, "sh exited with code 3", perr.Error())
	assert.Contains(t, out.String(), "oops")
}

func TestCommand_Terminal(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("pseudo-terminal support is Linux only")
	}
	requireShell(t)
	var out syncBuffer
	cmd := NewCommand("sh", "-c", "test -t 1 && echo tty; stty size")
	cmd.Rows, cmd.Cols = 30, 100
	require.NoError(t, cmd.Run(context.Background(), &out))
	assert.Contains(t, out.String(), "tty")
	assert.Contains(t, out.String(), "30 100")
}

func TestCommand_Cancel(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- NewCommand("sh", "-c", "echo started; sleep 30").Run(ctx, &out) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "started") }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("command did not stop after cancel")
	}
}

func TestCommand_StartError(t *testing.T) {
	err := NewCommand("definitely-not-a-real-binary").Run(context.Background(), &syncBuffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start definitely-not-a-real-binary")
}

func TestProcessError(t *testing.T) {
	cause := errors.New("signal: killed")
	err := &ProcessError{Name: "claude", ExitCode: -1, Cause: cause}
	assert.Equal(t, "claude terminated: signal: killed", err.Error())
	assert.ErrorIs(t, err, cause)
}
