package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

const (
	ScriptExt        = ".py"
	windowsBinaryExt = ".exe"
)

// LaunchCommand is a resolved engine command. Args are passed to the process
// unquoted; ArgLine renders them the way they would be typed.
type LaunchCommand struct {
	Path string
	Args []string
}

func DirectCommand(path string) LaunchCommand {
	return LaunchCommand{Path: path}
}

// ScriptCommand runs script through interpreter. interpreter may carry its own
// leading arguments (for example "py -3").
func ScriptCommand(interpreter []string, script string) LaunchCommand {
	if len(interpreter) == 0 {
		interpreter = []string{DefaultInterpreter()}
	}
	args := make([]string, 0, len(interpreter))
	args = append(args, interpreter[1:]...)
	args = append(args, script)
	return LaunchCommand{Path: interpreter[0], Args: args}
}

// ArgLine is the argument string with every argument quoted.
func (c LaunchCommand) ArgLine() string {
	if len(c.Args) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		quoted = append(quoted, Quote(arg))
	}
	return strings.Join(quoted, " ")
}

func (c LaunchCommand) String() string {
	line := c.ArgLine()
	if line == "" {
		return c.Path
	}
	return c.Path + " " + line
}

func (c LaunchCommand) IsZero() bool {
	return strings.TrimSpace(c.Path) == ""
}

// Quote wraps value in double quotes and escapes embedded double quotes.
func Quote(value string) string {
	if strings.TrimSpace(value) == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// BinaryExt is the platform's compiled-executable extension.
func BinaryExt() string {
	if runtime.GOOS == "windows" {
		return windowsBinaryExt
	}
	return ""
}

func DefaultInterpreter() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// Interpreter splits a configured interpreter string into program and leading
// arguments using shell word rules. An empty value yields the platform default.
func Interpreter(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{DefaultInterpreter()}, nil
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return nil, fmt.Errorf("interpreter contains invalid null byte")
	}
	fields, err := shell.Fields(trimmed, func(name string) string {
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("could not parse interpreter %q: %w", trimmed, err)
	}
	if len(fields) == 0 {
		return []string{DefaultInterpreter()}, nil
	}
	return fields, nil
}

// InterpreterAvailable reports whether the interpreter program can be found.
func InterpreterAvailable(interpreter []string) error {
	if len(interpreter) == 0 {
		return fmt.Errorf("interpreter is empty")
	}
	if _, err := exec.LookPath(interpreter[0]); err != nil {
		return fmt.Errorf("interpreter not found in PATH: %s", interpreter[0])
	}
	return nil
}
