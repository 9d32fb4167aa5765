package runner

import (
	"bytes"
	"io/ioutil"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Keep the poll loops fast under test.
	pollInterval = 10 * time.Millisecond
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := Run(nil, Opts{})
	assert.Error(t, err)
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run([]string{"/nonexistent/binary-for-test"}, Opts{Wait: true})
	assert.Error(t, err)
}

func TestRunUnexpectedExitCode(t *testing.T) {
	skipWithoutShell(t)
	p, err := Run([]string{"sh", "-c", "exit 3"}, Opts{Wait: true})
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "sh -c exit 3", exitErr.Command)
	assert.Equal(t, 3, p.ExitCode())
}

func TestRunExpectedNonzeroCode(t *testing.T) {
	skipWithoutShell(t)
	// The wrapped tools exit 1 when printing usage; an expected code
	// must not be treated as a failure.
	_, err := Run([]string{"sh", "-c", "exit 1"}, Opts{Wait: true, ExpectCode: 1})
	assert.NoError(t, err)
}

func TestRunQuietSkipsValidation(t *testing.T) {
	skipWithoutShell(t)
	p, err := Run([]string{"sh", "-c", "exit 1"}, Opts{Wait: true, Quiet: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, p.ExitCode())
}

func TestRunStreamBuffersOutput(t *testing.T) {
	skipWithoutShell(t)
	p, err := Run([]string{"sh", "-c", "echo hello; echo world >&2"},
		Opts{Wait: true, Stream: true})
	require.NoError(t, err)
	out := p.Output()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestRunRedirectsStdout(t *testing.T) {
	skipWithoutShell(t)
	var buf bytes.Buffer
	_, err := Run([]string{"sh", "-c", "printf 'counted\n'"},
		Opts{Wait: true, Stdout: &buf})
	require.NoError(t, err)
	assert.Equal(t, "counted\n", buf.String())
}

func TestRunNoWaitTransfersOwnership(t *testing.T) {
	skipWithoutShell(t)
	p, err := Run([]string{"sh", "-c", "printf 'deferred\n'"}, Opts{})
	require.NoError(t, err)
	out, err := ioutil.ReadAll(p.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "deferred\n", string(out))
	require.NoError(t, p.Wait())
	assert.Equal(t, 0, p.ExitCode())
}

func TestRunStdin(t *testing.T) {
	skipWithoutShell(t)
	var buf bytes.Buffer
	_, err := Run([]string{"sh", "-c", "tr a-z A-Z"},
		Opts{Wait: true, Stdin: bytes.NewReader([]byte("shout\n")), Stdout: &buf})
	require.NoError(t, err)
	assert.Equal(t, "SHOUT\n", buf.String())
}

func TestDisplayCommand(t *testing.T) {
	assert.Equal(t, "kallisto bus --list",
		displayCommand([]string{"/opt/bin/kallisto", "bus", "--list"}, false))
	assert.Equal(t, "/opt/bin/kallisto bus --list",
		displayCommand([]string{"/opt/bin/kallisto", "bus", "--list"}, true))
}
