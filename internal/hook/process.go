package hook

import (
	"fmt"
	"os"
	"os/exec"
)

const (
	EnvPath   = "STFED_PATH"
	EnvFolder = "STFED_FOLDER"
)

// ExitStatus is the outcome of a reaped process. Code is -1 when the
// process was killed by a signal.
type ExitStatus struct {
	Code   int
	Signal string
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "killed by " + s.Signal
	}

	return fmt.Sprintf("exit code %d", s.Code)
}

// Process is a started hook command.
type Process interface {
	Pid() int
	// TryWait reaps the process if it has exited, without blocking.
	TryWait() (ExitStatus, bool, error)
}

// Starter launches command with extra environment variables.
type Starter func(command []string, env []string) (Process, error)

// StartCommand runs command with stdin on /dev/null and inherited output.
func StartCommand(command []string, env []string) (Process, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return newExecProcess(cmd), nil
}
