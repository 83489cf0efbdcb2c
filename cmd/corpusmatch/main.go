// corpusmatch is the interactive debug CLI: it loads a JSON fixture
// collection and runs Engine.Search against stdin queries, printing ranked
// results. It is a testing/debugging surface, not a production interface —
// use corpusmatchd for that.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/corpusmatch/internal/cli"
	"github.com/bastiangx/corpusmatch/internal/utils"
	"github.com/bastiangx/corpusmatch/pkg/config"
	"github.com/bastiangx/corpusmatch/pkg/suggest"
)

func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	sourcePath := flag.String("source", "", "Path to a JSON array of fixture records")
	keys := flag.String("keys", "", "Comma-separated list of dotted field paths to index")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of results to print")
	minLen := flag.Int("qmin", defaultConfig.CLI.DefaultMinLen, "Minimum query length")
	maxLen := flag.Int("qmax", defaultConfig.CLI.DefaultMaxLen, "Maximum query length")

	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(false)
	} else {
		log.SetLevel(log.ErrorLevel)
	}

	if *keys == "" {
		log.Fatal("at least one -keys field path is required")
	}
	fieldPaths := strings.Split(*keys, ",")

	records := loadFixtures(*sourcePath)
	log.Debugf("loaded %d fixture records", len(records))

	engine := suggest.New(suggest.Options{
		Keys:   fieldPaths,
		Source: records,
		Config: defaultConfig,
	})

	inputHandler := cli.NewInputHandler(engine, *minLen, *maxLen, *limit)
	if err := inputHandler.Start(); err != nil {
		log.Fatalf("CLI error: %v", err)
	}
}

func loadFixtures(path string) []any {
	if path == "" {
		log.Warn("no -source given, running against an empty collection")
		return nil
	}
	resolver, err := utils.NewPathResolver()
	resolvedPath := path
	if err == nil {
		if found, ferr := resolver.GetRecordsPath(path); ferr == nil {
			resolvedPath = found
		}
	}

	data, err := os.ReadFile(resolvedPath)
	if err != nil {
		log.Fatalf("failed to read fixture file %s: %v", resolvedPath, err)
	}
	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		log.Fatalf("failed to parse fixture file %s: %v", resolvedPath, err)
	}
	return records
}
