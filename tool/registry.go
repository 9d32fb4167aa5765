package tool

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/scrnatools/scquant/textio"
)

// Technology describes one supported single-cell chemistry.
type Technology struct {
	// Name is the identifier passed to `kallisto bus -x`, e.g. "10xv3".
	Name string
	// Description is the human-readable chemistry name.
	Description string
	// WhitelistArchive is the file name of the bundled barcode whitelist
	// (possibly gzip-compressed), or empty when no whitelist ships with
	// the technology.
	WhitelistArchive string
}

// Registry maps technology names to their descriptors.  Lookups are
// case-insensitive.  A Registry is passed explicitly wherever it is needed;
// there is no package-level registry.
type Registry struct {
	technologies []Technology
	byName       map[string]Technology
}

// NewRegistry builds a Registry from the given technologies, preserving
// their order for listings.
func NewRegistry(technologies []Technology) *Registry {
	r := &Registry{
		technologies: technologies,
		byName:       make(map[string]Technology, len(technologies)),
	}
	for _, t := range technologies {
		r.byName[strings.ToUpper(t.Name)] = t
	}
	return r
}

// DefaultRegistry returns the registry of chemistries the pipeline ships
// whitelists or parameters for.
func DefaultRegistry() *Registry {
	return NewRegistry([]Technology{
		{Name: "10xv1", Description: "10x version 1", WhitelistArchive: "10xv1_whitelist.txt.gz"},
		{Name: "10xv2", Description: "10x version 2", WhitelistArchive: "10xv2_whitelist.txt.gz"},
		{Name: "10xv3", Description: "10x version 3", WhitelistArchive: "10xv3_whitelist.txt.gz"},
		{Name: "CELSeq", Description: "CEL-Seq"},
		{Name: "CELSeq2", Description: "CEL-Seq version 2"},
		{Name: "DropSeq", Description: "Drop-seq"},
		{Name: "inDrops", Description: "inDrops", WhitelistArchive: "indrops_whitelist.txt.gz"},
		{Name: "SCRBSeq", Description: "SCRB-Seq"},
		{Name: "SureCell", Description: "SureCell for ddSEQ"},
	})
}

// Lookup returns the descriptor for the named technology, matching
// case-insensitively.
func (r *Registry) Lookup(name string) (Technology, bool) {
	t, ok := r.byName[strings.ToUpper(name)]
	return t, ok
}

// Technologies returns all registered technologies in registration order.
func (r *Registry) Technologies() []Technology {
	out := make([]Technology, len(r.technologies))
	copy(out, r.technologies)
	return out
}

// WhitelistProvided reports whether the named technology ships with a
// bundled barcode whitelist.
func (r *Registry) WhitelistProvided(name string) bool {
	t, ok := r.Lookup(name)
	return ok && t.WhitelistArchive != ""
}

// CopyWhitelist copies the bundled whitelist for the named technology from
// whitelistDir into outDir, decompressing gzip archives.  The output name is
// the archive name with any compressed extension stripped.  It returns the
// path of the copied whitelist.
func (r *Registry) CopyWhitelist(name, whitelistDir, outDir string) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return "", errors.Errorf("unknown technology %q", name)
	}
	if t.WhitelistArchive == "" {
		return "", errors.Errorf("no whitelist provided for technology %q", t.Name)
	}
	archive := filepath.Join(whitelistDir, t.WhitelistArchive)
	out := filepath.Join(outDir, strings.TrimSuffix(t.WhitelistArchive, ".gz"))

	in, err := textio.Open(archive)
	if err != nil {
		return "", err
	}
	defer in.Close() // nolint: errcheck
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, in); err != nil {
		f.Close() // nolint: errcheck
		return "", errors.Wrapf(err, "copying whitelist for %q", t.Name)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return out, nil
}
