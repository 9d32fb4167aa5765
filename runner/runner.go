// Package runner spawns the external tools wrapped by the quantification
// pipeline.  It supports single commands with optional output streaming and
// exit-code validation, and Unix-style pipe chains where each stage's stdout
// feeds the next stage's stdin.
package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// pollInterval is how often a waited process is checked for exit when its
// output is not being streamed.
var pollInterval = time.Second

// Opts controls how a command is spawned and supervised.
type Opts struct {
	// Stdin is the process's standard input.  Nil inherits nothing.
	Stdin io.Reader
	// Stdout receives the process's standard output.  When nil, stdout is
	// captured in a pipe readable through Process.Stdout.
	Stdout io.Writer
	// Stderr receives the process's standard error.  When nil, stderr is
	// captured in a pipe.
	Stderr io.Writer
	// Wait blocks until the process exits and validates its exit code.
	Wait bool
	// Stream echoes captured output line by line at debug level while
	// waiting, buffering it for error reporting.
	Stream bool
	// Quiet suppresses all logging and exit-code validation.
	Quiet bool
	// ExpectCode is the exit code that counts as success.  The wrapped
	// tools print usage and exit 1 when invoked with no arguments, so
	// version probes set this to 1.
	ExpectCode int
	// NoAlias logs the full path of the program instead of its basename.
	NoAlias bool
}

// ExitError reports a process that exited with an unexpected code.
type ExitError struct {
	// Command is the full command line, tokens joined by spaces.
	Command string
	// Code is the observed exit code.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.Code)
}

// Process is a handle to a spawned command.  When the command was run with
// Wait=false the caller owns the handle and must call Wait (or poll) to reap
// the process.
type Process struct {
	cmd     *exec.Cmd
	command string

	stdout *os.File // read end of the captured stdout pipe, nil if redirected
	stderr *os.File

	monitor sync.Once
	done    chan struct{}
	waitErr error

	mu     sync.Mutex
	output []string
}

// Stdout returns the captured standard output of the process, or nil when
// stdout was redirected at spawn time.  The stream stays readable after the
// process exits.
func (p *Process) Stdout() io.ReadCloser {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Stderr returns the captured standard error of the process, or nil when
// stderr was redirected at spawn time.
func (p *Process) Stderr() io.ReadCloser {
	if p.stderr == nil {
		return nil
	}
	return p.stderr
}

// Command returns the command line of the process, tokens joined by spaces.
func (p *Process) Command() string { return p.command }

// Output returns the lines buffered while streaming the process's output.
func (p *Process) Output() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.output))
	copy(out, p.output)
	return out
}

func (p *Process) reap() {
	p.monitor.Do(func() {
		go func() {
			p.waitErr = p.cmd.Wait()
			close(p.done)
		}()
	})
}

// Poll reports whether the process has exited, without blocking.
func (p *Process) Poll() bool {
	p.reap()
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits.  It does not validate the exit code;
// use ExitCode for that.
func (p *Process) Wait() error {
	p.reap()
	<-p.done
	return p.waitErr
}

// ExitCode returns the process's exit code, blocking until it exits.
func (p *Process) ExitCode() int {
	p.reap()
	<-p.done
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// drain reads the captured stdout and stderr pipes to EOF, buffering each
// trimmed line and echoing it at debug level unless quiet.
func (p *Process) drain(quiet bool) {
	var wg sync.WaitGroup
	var pipes []io.Reader
	if p.stdout != nil {
		pipes = append(pipes, p.stdout)
	}
	if p.stderr != nil {
		pipes = append(pipes, p.stderr)
	}
	for _, r := range pipes {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(nil, 1<<20)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				p.mu.Lock()
				p.output = append(p.output, line)
				p.mu.Unlock()
				if !quiet {
					log.Debug.Printf("%s", line)
				}
			}
		}(r)
	}
	wg.Wait()
}

func displayCommand(command []string, noAlias bool) string {
	if noAlias || len(command) == 0 {
		return strings.Join(command, " ")
	}
	c := make([]string, len(command))
	copy(c, command)
	c[0] = filepath.Base(c[0])
	return strings.Join(c, " ")
}

// Run spawns a single command.  See Opts for the supervision knobs.  With
// Wait set, Run blocks until the process exits (polling once per second, or
// draining output line by line when Stream is set) and returns an ExitError
// if the exit code differs from ExpectCode, unless Quiet.  With Wait unset
// the live Process is returned immediately and the caller owns it.
//
// There is no cancellation support: a waited command runs to completion or
// OS-level signal.
func Run(command []string, opts Opts) (*Process, error) {
	if len(command) == 0 {
		return nil, errors.New("empty command")
	}
	display := displayCommand(command, opts.NoAlias)
	if !opts.Quiet {
		log.Debug.Printf("%s", display)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = os.Environ()
	cmd.Stdin = opts.Stdin
	p := &Process{
		cmd:     cmd,
		command: strings.Join(command, " "),
		done:    make(chan struct{}),
	}

	// Child-side write ends of any captured pipes; the parent must close
	// its copies after the fork or readers never see EOF.
	var childEnds []*os.File
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	} else {
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		cmd.Stdout = pw
		p.stdout = pr
		childEnds = append(childEnds, pw)
	}
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		cmd.Stderr = pw
		p.stderr = pr
		childEnds = append(childEnds, pw)
	}

	err := cmd.Start()
	for _, f := range childEnds {
		f.Close() // nolint: errcheck
	}
	if err != nil {
		return nil, errors.Wrapf(err, "starting %q", display)
	}

	if !opts.Wait {
		return p, nil
	}

	if opts.Stream {
		p.drain(opts.Quiet)
	}
	for !p.Poll() {
		time.Sleep(pollInterval)
	}
	if code := p.ExitCode(); !opts.Quiet && code != opts.ExpectCode {
		for _, line := range p.Output() {
			log.Error.Printf("%s", line)
		}
		return p, &ExitError{Command: p.command, Code: code}
	}
	return p, nil
}
