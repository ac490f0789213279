package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"agentic_accounting/pkg/mcp"
)

// maxLineBytes bounds one JSON-RPC message. Journal payloads can be large
// but 16 MiB is far beyond any realistic tool result.
const maxLineBytes = 16 * 1024 * 1024

// ServeStdio runs the line-delimited JSON-RPC loop over stdin/stdout until
// EOF, a shutdown request or context cancellation. Each message is handled
// on its own goroutine; writes are serialized. Logging must already be
// pointed at stderr — stdout belongs to the protocol.
func ServeStdio(ctx context.Context, s *Server) error {
	return Serve(ctx, s, os.Stdin, os.Stdout)
}

// Serve is ServeStdio over arbitrary streams, which is what tests use.
func Serve(ctx context.Context, s *Server, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var writeMu sync.Mutex
	var handlers sync.WaitGroup

	write := func(response []byte) {
		if response == nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		fmt.Fprintf(out, "%s\n", response)
	}

	s.log.Info("serving on stdio")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, stopping intake")
			handlers.Wait()
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer; the handler goroutine needs a copy.
		raw := make([]byte, len(line))
		copy(raw, line)

		// Shutdown is ordered: drain in-flight calls, answer, stop intake.
		var probe struct {
			Method string `json:"method"`
		}
		if json.Unmarshal(raw, &probe) == nil && probe.Method == mcp.MethodShutdown {
			handlers.Wait()
			write(s.HandleMessage(ctx, raw))
			break
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			write(s.HandleMessage(ctx, raw))
		}()
	}

	handlers.Wait()
	if err := scanner.Err(); err != nil {
		s.log.WithField("error", err).Error("transport read failed")
		return fmt.Errorf("stdio transport: %w", err)
	}

	if err := s.Shutdown(ctx); err != nil {
		s.log.Warnf("shutdown incomplete: %v", err)
	}
	s.log.Info("stdio loop closed")
	return nil
}
