// scquant-fetch retrieves a remote reference file, either buffered to disk
// with progress logging or streamed through a named pipe for another
// process to consume.
//
// Usage:
//
//	scquant-fetch -o index.idx https://example.org/index.idx
//	scquant-fetch -fifo -o reads.fastq.gz https://example.org/reads.fastq.gz
//
// With -fifo the named pipe is created at the output path and the transfer
// runs until the consumer closes the pipe; without it the file is
// downloaded in full before the tool exits.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/scrnatools/scquant/fetch"
)

var (
	outFlag  = flag.String("o", "", "output path (required)")
	fifoFlag = flag.Bool("fifo", false, "stream through a named pipe instead of downloading")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *outFlag == "" || flag.NArg() != 1 {
		log.Fatalf("usage: scquant-fetch [-fifo] -o path url")
	}
	url := flag.Arg(0)

	if *fifoFlag {
		path, err := fetch.Stream(url, *outFlag)
		if err != nil {
			log.Fatalf("streaming %s: %v", url, err)
		}
		log.Printf("named pipe ready at %s; waiting for the consumer (interrupt to stop)", path)
		// The transfer runs on a background goroutine for the life of the
		// process; keep the process alive until interrupted.
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		return
	}

	path, err := fetch.Download(nil, url, *outFlag)
	if err != nil {
		log.Fatalf("downloading %s: %v", url, err)
	}
	log.Printf("downloaded %s to %s", url, path)
}
