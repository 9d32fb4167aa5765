// Package tool probes and locates the two binaries wrapped by the pipeline:
// kallisto (pseudo-alignment) and bustools (BUS-record counting).  It also
// holds the registry of supported single-cell technologies and their bundled
// barcode whitelists.
package tool

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"

	"github.com/scrnatools/scquant/runner"
)

var (
	// versionRe matches the first line of the usage text printed by both
	// wrapped tools, e.g. "kallisto 0.46.2".
	versionRe = regexp.MustCompile(`^\S*? ([0-9]+)\.([0-9]+)\.([0-9]+)`)
	// technologyRe captures the technology name leading a listing line.
	technologyRe = regexp.MustCompile(`^(\S+)`)
)

// Version is a semantic version of a wrapped binary.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v precedes o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// ParseVersion extracts a semantic version from the first line of a tool's
// usage text.  ok is false when the line does not look like a version
// banner; version probing is advisory, so that is not an error.
func ParseVersion(line string) (Version, bool) {
	m := versionRe.FindStringSubmatch(line)
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, true
}

// Paths holds the locations of the wrapped binaries.  Empty fields fall back
// to a $PATH lookup.
type Paths struct {
	Kallisto string
	Bustools string
}

func resolve(explicit, name string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := lookpath.Look(envvar.SliceToMap(os.Environ()), name)
	if err != nil {
		return "", errors.Wrapf(err, "locating %s", name)
	}
	return path, nil
}

// KallistoPath returns the kallisto binary location.
func (p Paths) KallistoPath() (string, error) { return resolve(p.Kallisto, "kallisto") }

// BustoolsPath returns the bustools binary location.
func (p Paths) BustoolsPath() (string, error) { return resolve(p.Bustools, "bustools") }

// probeVersion runs the binary at path with no arguments and parses the
// version banner from the first line of its output.  Both tools print usage
// and exit 1 when given no arguments, so 1 is the expected code here.
func probeVersion(ex runner.Executor, path string) (Version, bool, error) {
	p, err := ex.Run([]string{path}, runner.Opts{Wait: true, Quiet: true, ExpectCode: 1})
	if err != nil {
		return Version{}, false, err
	}
	if p == nil { // dry run
		return Version{}, false, nil
	}
	scanner := bufio.NewScanner(p.Stdout())
	if !scanner.Scan() {
		return Version{}, false, scanner.Err()
	}
	v, ok := ParseVersion(scanner.Text())
	return v, ok, nil
}

// KallistoVersion probes the kallisto binary for its version.
func KallistoVersion(ex runner.Executor, paths Paths) (Version, bool, error) {
	path, err := paths.KallistoPath()
	if err != nil {
		return Version{}, false, err
	}
	return probeVersion(ex, path)
}

// BustoolsVersion probes the bustools binary for its version.
func BustoolsVersion(ex runner.Executor, paths Paths) (Version, bool, error) {
	path, err := paths.BustoolsPath()
	if err != nil {
		return Version{}, false, err
	}
	return probeVersion(ex, path)
}

// ParseTechnologies scans the output of `kallisto bus --list` for supported
// technology names.  A line starting with "-" begins the listing; each
// following line contributes its first whitespace-delimited token; a blank
// line ends it.
func ParseTechnologies(lines []string) map[string]bool {
	technologies := make(map[string]bool)
	parsing := false
	for _, line := range lines {
		if len(line) > 0 && line[0] == '-' {
			parsing = true
			continue
		}
		if !parsing {
			continue
		}
		if isBlank(line) {
			break
		}
		if m := technologyRe.FindStringSubmatch(line); m != nil {
			technologies[m[1]] = true
		}
	}
	return technologies
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' && r != '\v' && r != '\f' {
			return false
		}
	}
	return true
}

// SupportedTechnologies runs `kallisto bus --list` and returns the set of
// technology names the binary supports.  The set is empty when the listing
// cannot be parsed.
func SupportedTechnologies(ex runner.Executor, paths Paths) (map[string]bool, error) {
	path, err := paths.KallistoPath()
	if err != nil {
		return nil, err
	}
	p, err := ex.Run([]string{path, "bus", "--list"}, runner.Opts{Wait: true, Quiet: true, ExpectCode: 1})
	if err != nil {
		return nil, err
	}
	if p == nil { // dry run
		return map[string]bool{}, nil
	}
	var lines []string
	scanner := bufio.NewScanner(p.Stdout())
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParseTechnologies(lines), nil
}
