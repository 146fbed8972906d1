package cli

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfigError = 2
)

// ConfigError is a configuration problem detected before startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError is a failed command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a ConfigError for the file at path.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// NewCommandError wraps err as a CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitError
}
