// Package cli provides a simple interactive loop for debugging search
// behavior against a loaded record collection.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/corpusmatch/pkg/suggest"
)

// InputHandler runs a read-eval-print loop over an Engine: every trimmed
// line becomes a query, and ranked results are printed to the log.
type InputHandler struct {
	engine       *suggest.Engine
	minLength    int
	maxLength    int
	limit        int
	requestCount int
}

// NewInputHandler builds an InputHandler bound to engine.
func NewInputHandler(engine *suggest.Engine, minLength, maxLength, limit int) *InputHandler {
	return &InputHandler{
		engine:    engine,
		minLength: minLength,
		maxLength: maxLength,
		limit:     limit,
	}
}

// Start begins the interactive loop, reading from stdin until EOF or error.
func (h *InputHandler) Start() error {
	log.Print("corpusmatch CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a query and press Enter to see ranked results (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput runs one query through the engine and prints ranked results.
func (h *InputHandler) handleInput(q string) {
	h.requestCount++

	if len(q) < h.minLength {
		log.Errorf("query too short: %s", q)
		return
	}
	if len(q) > h.maxLength {
		log.Errorf("query too long: %s", q)
		return
	}

	start := time.Now()
	results := h.engine.Search(q)
	elapsed := time.Since(start)

	if len(results) > h.limit {
		results = results[:h.limit]
	}
	log.Debugf("took %v for query '%s'", elapsed, q)

	if len(results) == 0 {
		log.Warnf("no results for query: '%s'", q)
		return
	}

	log.Printf("found %d results for query '%s':", len(results), q)
	for i, r := range results {
		clRecord := fmt.Sprintf("\033[38;5;75m%v\033[0m", h.engine.Output(r))
		log.Printf("%2d. %-60s (score: %6.2f)", i+1, clRecord, r.Score)
	}
}
