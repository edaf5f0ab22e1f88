//go:build unix

package hook

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

type execProcess struct {
	cmd *exec.Cmd
}

func newExecProcess(cmd *exec.Cmd) *execProcess {
	return &execProcess{cmd: cmd}
}

// Hooks get their own process group so a terminal ^C aimed at the daemon
// does not reach them.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) TryWait() (ExitStatus, bool, error) {
	var ws unix.WaitStatus
	pid, err := unix.Wait4(p.cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	if errors.Is(err, unix.EINTR) {
		return ExitStatus{}, false, nil
	}
	if err != nil {
		return ExitStatus{}, false, err
	}
	if pid == 0 {
		return ExitStatus{}, false, nil
	}

	_ = p.cmd.Process.Release()

	if ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}, true, nil
	}
	return ExitStatus{Code: ws.ExitStatus()}, true, nil
}
