//go:build !unix

package hook

import (
	"os/exec"
)

// Without a non-blocking wait primitive, each process gets a goroutine
// blocked in Wait; TryWait only peeks at its result.
type execProcess struct {
	cmd  *exec.Cmd
	done chan ExitStatus
}

func newExecProcess(cmd *exec.Cmd) *execProcess {
	p := &execProcess{cmd: cmd, done: make(chan ExitStatus, 1)}
	go func() {
		_ = cmd.Wait()
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		p.done <- ExitStatus{Code: code}
	}()

	return p
}

func setProcAttr(_ *exec.Cmd) {}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) TryWait() (ExitStatus, bool, error) {
	select {
	case st := <-p.done:
		return st, true, nil
	default:
		return ExitStatus{}, false, nil
	}
}
