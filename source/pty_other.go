//go:build !linux

package source

import (
	"os"
	"os/exec"
	"syscall"
)

// startTerminal starts cmd with stdout and stderr on one pipe; cmd.Stdin
// is used as is. The child gets its own process group for cleanup.
func startTerminal(cmd *exec.Cmd, _, _ uint16) (*terminal, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	w.Close()
	return &terminal{output: r}, nil
}
