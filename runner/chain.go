package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RunChain runs two or more commands as a pipe chain: each stage's stdout
// becomes the next stage's stdin.  Every stage except the last is forced to
// a captured-pipe stdout with Wait and Stream off, since blocking on it or
// consuming its output would starve the downstream stage; only the last
// stage honors the caller's Stdout, Wait and Stream.
//
// The orchestrator's handle to each upstream pipe is closed as soon as the
// downstream stage holds it, so that the upstream process sees EOF or
// SIGPIPE when its consumer finishes.  Dropping that close would leave the
// upstream process hanging on a full pipe with no reader.
//
// With opts.Wait set, every stage is polled to completion and a stage that
// exits nonzero fails the whole chain with an ExitError naming that stage's
// own command.
//
// All stage handles are returned in stage order.
func RunChain(ex Executor, commands [][]string, opts Opts) ([]*Process, error) {
	if len(commands) < 2 {
		return nil, errors.Errorf("pipe chain needs at least 2 commands, got %d", len(commands))
	}
	// Both DryRun and *DryRun satisfy Executor.
	switch ex.(type) {
	case DryRun, *DryRun:
		displays := make([]string, len(commands))
		for i, command := range commands {
			displays[i] = strings.Join(command, " ")
		}
		fmt.Println(strings.Join(displays, " | "))
		return nil, nil
	}

	processes := make([]*Process, 0, len(commands))
	var upstream *Process
	for i, command := range commands {
		stageOpts := opts
		if i > 0 {
			stageOpts.Stdin = upstream.stdout
		}
		if i != len(commands)-1 {
			stageOpts.Stdout = nil // captured pipe for the next stage
			stageOpts.Wait = false
			stageOpts.Stream = false
		}
		p, err := ex.Run(command, stageOpts)
		if i > 0 {
			// The downstream stage now owns the read end; drop ours.
			upstream.stdout.Close() // nolint: errcheck
		}
		if p != nil {
			processes = append(processes, p)
		}
		if err != nil {
			return processes, err
		}
		upstream = p
	}

	if opts.Wait {
		for i, p := range processes {
			for !p.Poll() {
				time.Sleep(pollInterval)
			}
			if code := p.ExitCode(); code != 0 {
				return processes, &ExitError{Command: strings.Join(commands[i], " "), Code: code}
			}
		}
	}
	return processes, nil
}
