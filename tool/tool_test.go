package tool_test

import (
	"io/ioutil"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrnatools/scquant/runner"
	"github.com/scrnatools/scquant/tool"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		line string
		want tool.Version
		ok   bool
	}{
		{"kallisto 0.46.2", tool.Version{Major: 0, Minor: 46, Patch: 2}, true},
		{"bustools 0.40.0", tool.Version{Major: 0, Minor: 40, Patch: 0}, true},
		{"usage: kallisto 10.2.33", tool.Version{Major: 10, Minor: 2, Patch: 33}, true},
		{"no version here", tool.Version{}, false},
		{"", tool.Version{}, false},
	}
	for _, tt := range tests {
		got, ok := tool.ParseVersion(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestVersionStringAndLess(t *testing.T) {
	a := tool.Version{Major: 0, Minor: 46, Patch: 2}
	b := tool.Version{Major: 0, Minor: 48, Patch: 0}
	assert.Equal(t, "0.46.2", a.String())
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}

func TestParseTechnologies(t *testing.T) {
	lines := []string{
		"--list",
		"-short",
		"10xv2 ...",
		"10xv3 ...",
		"",
		"other text",
	}
	got := tool.ParseTechnologies(lines)
	// Parsing starts after the "-short" line and stops at the blank line,
	// so "other" must not appear.
	assert.Equal(t, map[string]bool{"10xv2": true, "10xv3": true}, got)
}

func TestParseTechnologiesNoListing(t *testing.T) {
	assert.Empty(t, tool.ParseTechnologies([]string{"usage: kallisto bus", "options:"}))
	assert.Empty(t, tool.ParseTechnologies(nil))
}

func writeFakeTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestKallistoVersionProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("probe tests use shell scripts")
	}
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	// The real binary prints usage to stdout and exits 1 when run with no
	// arguments.
	fake := writeFakeTool(t, tempDir, "kallisto",
		"echo 'kallisto 0.46.2'\necho 'Usage: kallisto <CMD> [arguments] ..'\nexit 1\n")
	v, ok, err := tool.KallistoVersion(runner.Live{}, tool.Paths{Kallisto: fake})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tool.Version{Major: 0, Minor: 46, Patch: 2}, v)
}

func TestBustoolsVersionProbeUnparseable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("probe tests use shell scripts")
	}
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	fake := writeFakeTool(t, tempDir, "bustools", "echo 'no banner today'\nexit 1\n")
	_, ok, err := tool.BustoolsVersion(runner.Live{}, tool.Paths{Bustools: fake})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSupportedTechnologiesProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("probe tests use shell scripts")
	}
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	fake := writeFakeTool(t, tempDir, "kallisto",
		"echo 'List of supported single-cell technologies'\n"+
			"echo ''\n"+
			"echo '-short name       description'\n"+
			"echo '10xv2             10x version 2 chemistry'\n"+
			"echo '10xv3             10x version 3 chemistry'\n"+
			"echo 'DropSeq           DropSeq'\n"+
			"echo ''\n"+
			"exit 1\n")
	got, err := tool.SupportedTechnologies(runner.Live{}, tool.Paths{Kallisto: fake})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"10xv2": true, "10xv3": true, "DropSeq": true}, got)
}

func TestProbeDryRun(t *testing.T) {
	_, ok, err := tool.KallistoVersion(runner.DryRun{}, tool.Paths{Kallisto: "kallisto"})
	require.NoError(t, err)
	assert.False(t, ok)
}
