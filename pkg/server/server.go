package server

import (
	"bufio"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/corpusmatch/pkg/suggest"
)

// Server handles the msgpack IPC for record search over stdin/stdout.
type Server struct {
	engine *suggest.Engine
	dec    *msgpack.Decoder
	enc    *msgpack.Encoder
}

// NewServer builds a Server driving engine, reading requests from r and
// writing responses to w (os.Stdin/os.Stdout when used standalone).
func NewServer(engine *suggest.Engine, r io.Reader, w io.Writer) *Server {
	return &Server{
		engine: engine,
		dec:    msgpack.NewDecoder(bufio.NewReader(r)),
		enc:    msgpack.NewEncoder(w),
	}
}

// Start reads one msgpack message at a time until EOF, dispatching each to
// the matching handler. msgpack values are self-delimiting, so no
// line/length framing is needed on top of it.
func (s *Server) Start() error {
	log.Debug("starting server")
	s.send(map[string]string{"status": "ready"})

	for {
		var raw map[string]any
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("decoding request: %v", err)
			return err
		}
		s.dispatch(raw)
	}
}

func (s *Server) dispatch(raw map[string]any) {
	var env envelope
	if err := remarshal(raw, &env); err != nil {
		s.sendError("", "invalid request", 400)
		return
	}

	switch env.Command {
	case "search":
		s.handleSearch(raw, env.ID)
	case "add":
		s.handleAdd(raw, env.ID)
	case "stats":
		s.handleStats(env.ID)
	default:
		s.sendError(env.ID, "unknown command: "+env.Command, 400)
	}
}

func (s *Server) handleSearch(raw map[string]any, id string) {
	var req SearchRequest
	if err := remarshal(raw, &req); err != nil {
		s.sendError(id, "malformed search request", 400)
		return
	}
	if req.Query == "" {
		s.sendError(id, "missing 'q' parameter", 400)
		return
	}
	limit := req.Limit
	if limit < 1 {
		limit = 10
	}

	start := time.Now()
	results := s.engine.Search(req.Query)
	if len(results) > limit {
		results = results[:limit]
	}
	elapsed := time.Since(start)

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{Record: s.engine.Output(r), Score: r.Score}
	}

	s.send(SearchResponse{
		ID:        id,
		Results:   hits,
		Count:     len(hits),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleAdd(raw map[string]any, id string) {
	var req AddRequest
	if err := remarshal(raw, &req); err != nil || req.Record == nil {
		s.sendError(id, "malformed add request", 400)
		return
	}
	s.engine.Add(req.Record)
	s.send(AddResponse{ID: id, Status: "ok"})
}

func (s *Server) handleStats(id string) {
	s.send(StatsResponse{ID: id, Indexed: s.engine.Len()})
}

func (s *Server) send(v any) {
	if err := s.enc.Encode(v); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

// remarshal round-trips a decoded map[string]any through msgpack into a
// concrete struct, since the dispatch decode can't know the shape upfront.
func remarshal(raw map[string]any, dst any) error {
	data, err := msgpack.Marshal(raw)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, dst)
}
