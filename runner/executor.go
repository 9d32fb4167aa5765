package runner

import (
	"fmt"
	"strings"
)

// Executor abstracts command execution so that callers can be switched
// between a live run and a dry run that only prints what would be executed.
type Executor interface {
	Run(command []string, opts Opts) (*Process, error)
}

// Live executes commands for real.
type Live struct{}

// Run implements Executor.
func (Live) Run(command []string, opts Opts) (*Process, error) {
	return Run(command, opts)
}

// DryRun prints commands to stdout instead of executing them.  Run always
// reports success with a nil Process.
type DryRun struct{}

// Run implements Executor.
func (DryRun) Run(command []string, opts Opts) (*Process, error) {
	fmt.Println(strings.Join(command, " "))
	return nil, nil
}
