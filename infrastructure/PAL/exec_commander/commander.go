package exec_commander

import (
	"os/exec"

	"cdtun/infrastructure/PAL"
)

// ExecCommander runs administrative commands through os/exec.
type ExecCommander struct {
}

func NewExecCommander() PAL.Commander {
	return &ExecCommander{}
}

func (r *ExecCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

func (r *ExecCommander) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}
