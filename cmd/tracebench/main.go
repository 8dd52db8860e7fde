// Command tracebench replays one or more allocation traces against a
// fresh Allocator per file, reporting operation counts, elapsed time,
// and peak live bytes. Each file gets its own Allocator instance;
// multiple files replay concurrently over a worker pool, not
// because one Allocator is made safe to share, but because each job
// owns its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/segalloc/segalloc/concurrency/workpool"
	"github.com/segalloc/segalloc/malloc"
	"github.com/segalloc/segalloc/memlib"
)

func main() {
	heapSize := flag.Int("heap", 64<<20, "bytes reserved per allocator instance")
	growth := flag.Int("growth", 4096, "bytes to extend the heap by on each miss")
	debugChecks := flag.Bool("debug", false, "run CheckInvariants after every op (slow)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("usage: tracebench [flags] trace-file...")
	}

	pool := workpool.New("tracebench", nil)
	results := make([]*result, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	wg.Add(len(files))
	for i, path := range files {
		i, path := i, path
		pool.Go(func() {
			defer wg.Done()
			results[i], errs[i] = replayFile(path, *heapSize, *growth, *debugChecks)
		})
	}
	wg.Wait()

	exit := 0
	for i, path := range files {
		if errs[i] != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, errs[i])
			exit = 1
			continue
		}
		r := results[i]
		fmt.Printf("%-30s ops=%-8d peak-live=%-10d elapsed=%s\n", r.name, r.ops, r.peakLive, r.duration)
	}
	os.Exit(exit)
}

func replayFile(path string, heapSize, growth int, debugChecks bool) (*result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ops, err := parseTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Each file gets its own short-lived arena; borrowing from the
	// shared pool instead of a dedicated make([]byte, heapSize) keeps a
	// batch of concurrent replays from pressuring the GC with
	// multi-megabyte reservations it'll throw away a few milliseconds
	// later.
	provider := memlib.NewPooledProvider(heapSize)
	defer provider.Release()

	cfg := malloc.DefaultConfig()
	cfg.Provider = provider
	cfg.InitialGrowth = uintptr(growth)
	cfg.DebugChecks = debugChecks

	return replay(path, ops, cfg)
}
