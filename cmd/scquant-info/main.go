// scquant-info prints the versions of the wrapped kallisto and bustools
// binaries and the single-cell technologies the kallisto build supports,
// annotated with whether a barcode whitelist ships with the pipeline.
//
// Usage:
//
//	scquant-info [-kallisto path] [-bustools path]
//
// With no flags the binaries are located on $PATH.
package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/scrnatools/scquant/runner"
	"github.com/scrnatools/scquant/tool"
)

var (
	kallistoFlag = flag.String("kallisto", "", "path to the kallisto binary (default: $PATH lookup)")
	bustoolsFlag = flag.String("bustools", "", "path to the bustools binary (default: $PATH lookup)")
	dryRunFlag   = flag.Bool("dry-run", false, "print the probe commands instead of running them")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	paths := tool.Paths{Kallisto: *kallistoFlag, Bustools: *bustoolsFlag}
	var ex runner.Executor = runner.Live{}
	if *dryRunFlag {
		ex = runner.DryRun{}
	}

	kv, ok, err := tool.KallistoVersion(ex, paths)
	if err != nil {
		log.Fatalf("probing kallisto: %v", err)
	}
	printVersion("kallisto", kv, ok)

	bv, ok, err := tool.BustoolsVersion(ex, paths)
	if err != nil {
		log.Fatalf("probing bustools: %v", err)
	}
	printVersion("bustools", bv, ok)

	technologies, err := tool.SupportedTechnologies(ex, paths)
	if err != nil {
		log.Fatalf("listing technologies: %v", err)
	}
	if *dryRunFlag {
		return
	}

	names := make([]string, 0, len(technologies))
	for name := range technologies {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := tool.DefaultRegistry()
	fmt.Println("supported technologies:")
	for _, name := range names {
		mark := " "
		if registry.WhitelistProvided(name) {
			mark = "*"
		}
		fmt.Printf("  %s %s\n", mark, name)
	}
	fmt.Println("technologies marked * have a bundled barcode whitelist")
}

func printVersion(name string, v tool.Version, ok bool) {
	if !ok {
		fmt.Printf("%s: version unknown\n", name)
		return
	}
	fmt.Printf("%s: %s\n", name, v)
}
