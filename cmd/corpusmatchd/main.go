/*
Package main implements the corpusmatch IPC server.

Note: This is a BETA release. APIs and functionality may rapidly change.

corpusmatchd provides fuzzy record search over a JSON record collection using
the packed-alphabet LCS kernel with alignment-based highlighting. It operates
as a MessagePack IPC server for integration with editors and other tooling,
communicating over stdin/stdout.

# Usage

Start the server against a records file:

	corpusmatchd -source records.json -keys title,body

Enable debug mode:

	corpusmatchd -source records.json -keys title -d

# Configuration

Runtime configuration is managed through a TOML file covering matching
thresholds, tokenisation, highlight markers, and the n-gram pre-filter:

	[matching]
	minimum_match = 0.45
	thresh_include = 0.2

	[store]
	use_index_store = true

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Requests are
processed synchronously with microsecond timing information in responses.

Send a search request:

	{"id": "req1", "cmd": "search", "q": "surgeo", "l": 10}

Receive ranked results:

	{"id": "req1", "r": [{"rec": {...}, "s": 92.5}], "c": 1, "t": 145}

Insert a record at runtime:

	{"id": "add1", "cmd": "add", "rec": {...}}
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/corpusmatch/internal/utils"
	"github.com/bastiangx/corpusmatch/pkg/config"
	"github.com/bastiangx/corpusmatch/pkg/server"
	"github.com/bastiangx/corpusmatch/pkg/suggest"
)

const (
	Version = "0.1.0-beta"
	AppName = "corpusmatch"
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

	showVersion := flag.Bool("version", false, "Show current version")
	sourcePath := flag.String("source", "", "Path to a JSON array of records to index")
	keys := flag.String("keys", "", "Comma-separated list of dotted field paths to index")
	configPath := flag.String("config", "", "Path to a TOML config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	lazy := flag.Bool("lazy", false, "Defer field extraction until the first search")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("failed to initialize path resolver: %v", err)
	}

	resolvedConfigPath := *configPath
	if resolvedConfigPath == "" {
		resolvedConfigPath, err = pathResolver.GetConfigPath("config.toml")
		if err != nil {
			log.Fatalf("failed to determine config path: %v", err)
		}
	}
	log.Debugf("using config file: %s", resolvedConfigPath)

	cfg, err := config.InitConfig(resolvedConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *keys == "" {
		log.Fatal("at least one -keys field path is required")
	}
	fieldPaths := strings.Split(*keys, ",")

	records := loadRecords(*sourcePath)
	log.Debugf("loaded %d records from %s", len(records), *sourcePath)

	engine := suggest.New(suggest.Options{
		Keys:   fieldPaths,
		Source: records,
		Lazy:   *lazy,
		Config: cfg,
	})

	showStartupInfo(len(records))

	srv := server.NewServer(engine, os.Stdin, os.Stdout)
	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadRecords reads a JSON array of objects from path. An empty path starts
// the engine with no records, relying entirely on runtime "add" requests.
func loadRecords(path string) []any {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read records file %s: %v", path, err)
	}
	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		log.Fatalf("failed to parse records file %s: %v", path, err)
	}
	return records
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})
	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)
	logger.Print("")
	logger.Printf("[ %s ] Fuzzy record search over MessagePack IPC", AppName)
	logger.Print("", "version", Version)
	logger.Print("")
}

func showStartupInfo(nbRecords int) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" corpusmatchd ")
	println("===========")
	log.Infof("version: %s", Version)
	log.Infof("process id: [ %d ]", pid)
	log.Infof("indexed records: %d", nbRecords)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
