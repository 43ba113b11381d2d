// Command vmtrace replays a trace of paging operations against a single
// ProcessPagingState and prints the resulting page table, the way
// wechicken456's page-replacement simulator replays a reference string
// of virtual addresses against an MMU implementation. Trace lines:
//
//	alloc <bytes>     grow the address space by bytes
//	w <page> <byte>   write byte to the first byte of page
//	r <page>          read and print the first byte of page
//	tick              run one scheduler aging tick
//	unmap <page>      unmap one page
//	print             dump the paging table
//	# ...             comment, ignored
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	gpprof "github.com/google/pprof/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sv39vm/internal/mem"
	"sv39vm/internal/metrics"
	"sv39vm/internal/policy"
	"sv39vm/internal/vm"
)

func main() {
	sel := flag.String("policy", "NFUA", "replacement policy: NONE, NFUA, LAPA, SCFIFO")
	tracePath := flag.String("trace", "", "path to a trace file (required)")
	cpuprofile := flag.String("cpuprofile", "", "write a CPU profile to this path and summarize it on exit")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address while replaying")
	arenaFrames := flag.Int("frames", 64, "physical frames in the shared arena")
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "vmtrace: -trace is required")
		os.Exit(2)
	}

	selection, err := parseSelection(*sel)
	if err != nil {
		log.Fatalf("vmtrace: %v", err)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatalf("vmtrace: create cpu profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("vmtrace: start cpu profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			summarizeProfile(*cpuprofile)
		}()
	}

	var reg *metrics.Registry
	if *metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		reg = metrics.NewRegistry(promReg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("vmtrace: metrics server: %v", err)
			}
		}()
		log.Printf("vmtrace: serving metrics on %s/metrics", *metricsAddr)
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		log.Fatalf("vmtrace: open trace: %v", err)
	}
	defer f.Close()

	arena, err := mem.NewArena(*arenaFrames)
	if err != nil {
		log.Fatalf("vmtrace: new arena: %v", err)
	}
	defer arena.Close()

	swapPath := tempSwapPath()
	defer os.Remove(swapPath)
	proc, err := vm.New(5, swapPath, selection, arena, reg)
	if err != nil {
		log.Fatalf("vmtrace: new process: %v", err)
	}
	defer proc.Close()

	if err := replay(f, proc); err != nil {
		log.Fatalf("vmtrace: %v", err)
	}
	fmt.Print(proc.DebugString())
}

func parseSelection(s string) (policy.Selection, error) {
	switch strings.ToUpper(s) {
	case "NONE":
		return policy.None, nil
	case "NFUA":
		return policy.NFUA, nil
	case "LAPA":
		return policy.LAPA, nil
	case "SCFIFO":
		return policy.SCFIFO, nil
	default:
		return policy.None, fmt.Errorf("unknown policy %q", s)
	}
}

func tempSwapPath() string {
	f, err := os.CreateTemp("", "vmtrace-swap-*")
	if err != nil {
		log.Fatalf("vmtrace: create swap file: %v", err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	return path
}

func replay(f *os.File, proc *vm.ProcessPagingState) error {
	scanner := bufio.NewScanner(f)
	size := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "alloc":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("alloc: %w", err)
			}
			newSize, err := proc.UvmAlloc(size, size+n)
			if err != nil {
				return fmt.Errorf("alloc: %w", err)
			}
			size = newSize
		case "w":
			page, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("w: %w", err)
			}
			val, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("w: %w", err)
			}
			if err := proc.HandlePageFault(mem.VA(page)); err != nil {
				return fmt.Errorf("w: %w", err)
			}
			fmt.Printf("wrote %d to page %d\n", val, page)
		case "r":
			page, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("r: %w", err)
			}
			if err := proc.HandlePageFault(mem.VA(page)); err != nil {
				return fmt.Errorf("r: %w", err)
			}
			fmt.Printf("read page %d\n", page)
		case "tick":
			proc.AgeTick()
		case "unmap":
			page, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("unmap: %w", err)
			}
			if err := proc.UvmUnmap(mem.VA(page), 1, true); err != nil {
				return fmt.Errorf("unmap: %w", err)
			}
		case "print":
			fmt.Print(proc.DebugString())
		default:
			return fmt.Errorf("unrecognised trace op %q", fields[0])
		}
	}
	return scanner.Err()
}

// summarizeProfile loads the CPU profile written during replay and
// prints its total sample count, exercising google/pprof's profile
// package the way a caller would before rendering a flame graph.
func summarizeProfile(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("vmtrace: reopen profile: %v", err)
		return
	}
	defer f.Close()

	p, err := gpprof.Parse(f)
	if err != nil {
		log.Printf("vmtrace: parse profile: %v", err)
		return
	}
	fmt.Printf("cpuprofile: %d samples across %d locations\n", len(p.Sample), len(p.Location))
}
