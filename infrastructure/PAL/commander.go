package PAL

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"cdtun/application"
)

// Commander abstracts platform-specific command execution (e.g., via exec.Command).
type Commander interface {
	CombinedOutput(name string, args ...string) ([]byte, error)
	Output(name string, args ...string) ([]byte, error)
}

// ClassifyCommandError maps a failed administrative command onto the shared
// error taxonomy: a missing binary, a refused privilege, or a plain
// configuration failure carrying the tool's own message.
func ClassifyCommandError(tool string, err error, output []byte) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s not found", application.ErrToolingMissing, tool)
	}
	text := strings.ToLower(string(output) + " " + err.Error())
	if strings.Contains(text, "permission denied") ||
		strings.Contains(text, "operation not permitted") ||
		strings.Contains(text, "access is denied") {
		return fmt.Errorf("%w: %s: %s", application.ErrPermissionDenied, tool, strings.TrimSpace(string(output)))
	}
	return fmt.Errorf("%w: %s: %v (%s)", application.ErrConfigurationFailed, tool, err, strings.TrimSpace(string(output)))
}

// IsAlreadyExists reports whether a command failed only because the address
// or route it was programming is already present.
func IsAlreadyExists(output []byte) bool {
	text := strings.ToLower(string(output))
	return strings.Contains(text, "file exists") ||
		strings.Contains(text, "already exists") ||
		strings.Contains(text, "already assigned")
}
