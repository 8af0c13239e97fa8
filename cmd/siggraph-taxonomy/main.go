// Package main provides a CLI tool for inspecting the taxonomy index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"siggraph/internal/taxonomy"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "fetch":
		runFetchCmd(os.Args[2:])
	case "lookup":
		runLookupCmd(os.Args[2:])
	case "-version", "--version", "-v":
		fmt.Printf("siggraph-taxonomy %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: siggraph-taxonomy <command> [flags] [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  fetch   Download the taxonomy bundle and print index statistics\n")
	fmt.Fprintf(os.Stderr, "  lookup  Resolve external IDs against a freshly built index\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	fmt.Fprintf(os.Stderr, "  -version  Show version and exit\n")
}

func runFetchCmd(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	url := fs.String("url", "", "Taxonomy bundle URL (default: built-in)")
	timeout := fs.Duration("timeout", 2*time.Minute, "Fetch timeout")
	dump := fs.Bool("dump", false, "Print every index entry")
	fs.Parse(args)

	index, err := buildIndex(*url, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var techniques, groups int
	for id := range index {
		if strings.HasPrefix(id, "T") {
			techniques++
		} else if strings.HasPrefix(id, "G") {
			groups++
		}
	}

	fmt.Printf("Index built: %d entries (%d techniques, %d groups)\n",
		len(index), techniques, groups)

	if *dump {
		ids := make([]string, 0, len(index))
		for id := range index {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%-12s  %s\n", id, index[id])
		}
	}
}

func runLookupCmd(args []string) {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	url := fs.String("url", "", "Taxonomy bundle URL (default: built-in)")
	timeout := fs.Duration("timeout", 2*time.Minute, "Fetch timeout")
	fs.Parse(args)

	ids := fs.Args()
	if len(ids) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one external ID is required\n")
		fmt.Fprintf(os.Stderr, "Usage: siggraph-taxonomy lookup [--url <url>] <id> [<id>...]\n")
		os.Exit(1)
	}

	index, err := buildIndex(*url, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var missing int
	for _, id := range ids {
		nodeID, ok := index.Lookup(id)
		if !ok {
			fmt.Printf("%-12s  (not found)\n", id)
			missing++
			continue
		}
		fmt.Printf("%-12s  %s\n", id, nodeID)
	}

	if missing > 0 {
		os.Exit(1)
	}
}

func buildIndex(url string, timeout time.Duration) (taxonomy.Index, error) {
	cfg := taxonomy.DefaultFetcherConfig()
	if url != "" {
		cfg.URL = url
	}
	cfg.Timeout = timeout

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return taxonomy.Build(ctx, taxonomy.NewHTTPFetcher(cfg))
}
