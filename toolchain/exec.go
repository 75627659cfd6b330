package toolchain

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/demikernel/dpdkgen/internal"
)

// Environ looks up an environment variable.
type Environ func(key string) (string, bool)

// OSEnviron reads the environment of the current process.
var OSEnviron Environ = os.LookupEnv

// MapEnviron returns an Environ backed by a map.
func MapEnviron(env map[string]string) Environ {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func (e Environ) lookup(key string) (string, bool) {
	if e == nil {
		return os.LookupEnv(key)
	}
	return e(key)
}

// Runner executes commands built by the generator. A custom Runner can run
// tools in a container, add caching or fake them in tests.
type Runner interface {
	Run(cmd *exec.Cmd) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(cmd *exec.Cmd) error

func (f RunnerFunc) Run(cmd *exec.Cmd) error {
	return f(cmd)
}

// ExecRunner runs commands as they are.
var ExecRunner Runner = RunnerFunc((*exec.Cmd).Run)

// Output runs cmd using r and returns what it wrote to stdout.
//
// If the command fails the error is an *internal.ToolError carrying
// stderr verbatim.
func Output(r Runner, cmd *exec.Cmd) ([]byte, error) {
	var stdout bytes.Buffer
	if err := Exec(r, cmd, &stdout); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Exec runs cmd using r, streaming stdout into w.
func Exec(r Runner, cmd *exec.Cmd, stdout io.Writer) error {
	if r == nil {
		r = ExecRunner
	}

	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := r.Run(cmd); err != nil {
		return internal.NewToolError(toolName(cmd), err, stderr.Bytes())
	}
	return nil
}

func toolName(cmd *exec.Cmd) string {
	if len(cmd.Args) > 0 {
		return filepath.Base(cmd.Args[0])
	}
	return filepath.Base(cmd.Path)
}
