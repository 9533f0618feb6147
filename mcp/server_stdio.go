package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shaharia-lab/spacex-mcp/observability"
)

// LifecycleState tracks where a StdIOServer is in its single loop.
type LifecycleState int32

const (
	StateStarting LifecycleState = iota
	StateAnnouncing
	StateAwaitingLine
	StateProcessing
	StateTerminated
)

func (s LifecycleState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAnnouncing:
		return "announcing_capabilities"
	case StateAwaitingLine:
		return "awaiting_line"
	case StateProcessing:
		return "processing"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int32(s))
	}
}

// fallbackErrorLine is written if an error envelope itself cannot be encoded.
const fallbackErrorLine = `{"error":"failed to encode error response","type":"processing_error"}`

// StdIOServer is the MCP server implementation using standard input/output.
// Requests are handled strictly one at a time; each input line yields exactly
// one output line.
type StdIOServer struct {
	*BaseServer
	in    io.Reader
	out   *bufio.Writer
	state atomic.Int32

	// mu guards out and closed. Once closed is set nothing more is written.
	mu     sync.Mutex
	closed bool
}

// errServerClosed stops the serve loop after Run has returned.
var errServerClosed = errors.New("server is closed")

// NewStdIOServer creates a new StdIOServer.
func NewStdIOServer(baseServer *BaseServer, in io.Reader, out io.Writer) *StdIOServer {
	return &StdIOServer{
		BaseServer: baseServer,
		in:         in,
		out:        bufio.NewWriter(out),
	}
}

func (s *StdIOServer) State() LifecycleState {
	return LifecycleState(s.state.Load())
}

// setState moves to state unless the server has already terminated.
func (s *StdIOServer) setState(state LifecycleState) {
	for {
		cur := s.state.Load()
		if LifecycleState(cur) == StateTerminated {
			return
		}
		if s.state.CompareAndSwap(cur, int32(state)) {
			return
		}
	}
}

// Run announces capabilities and then serves requests until the input ends
// (nil), the context is cancelled (ctx.Err()), or a stream fails. Nothing is
// written to out after Run returns.
func (s *StdIOServer) Run(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "StdIOServer.Run")
	defer func() {
		s.close()
		s.setState(StateTerminated)
		observability.EndSpan(span, err)
	}()

	s.setState(StateAnnouncing)
	announcement, err := json.Marshal(s.Announcement())
	if err != nil {
		return fmt.Errorf("failed to encode capability announcement: %w", err)
	}
	if err = s.writeLine(announcement); err != nil {
		return fmt.Errorf("failed to announce capabilities: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"tools":   len(s.tools),
		"server":  s.serverInfo.Name,
		"version": s.serverInfo.Version,
	}).Info("Capabilities announced, awaiting requests")

	done := make(chan error, 1)
	go func() {
		done <- s.serve(ctx, bufio.NewReader(s.in))
	}()

	select {
	case <-ctx.Done():
		s.logger.Debug("Context cancelled, StdIOServer shutting down")
		return ctx.Err()
	case err = <-done:
		s.logger.WithErr(err).Debug("StdIOServer shutting down")
		return err
	}
}

func (s *StdIOServer) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *StdIOServer) serve(ctx context.Context, r *bufio.Reader) error {
	for {
		s.setState(StateAwaitingLine)
		line, oversized, err := s.readLine(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(StateProcessing)
		if oversized {
			err = s.rejectLine(newProcessingError(KindParse, "", "request line exceeds %d bytes", s.maxRequestSize))
		} else {
			err = s.handleLine(ctx, line)
		}
		if err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxRequestSize is consumed up to its newline and reported as oversized. A
// final line without a newline is still returned; io.EOF means no more lines.
func (s *StdIOServer) readLine(r *bufio.Reader) (line []byte, oversized bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			line = append(line, chunk...)
			// allow room for "\r\n"
			if len(line) > s.maxRequestSize+2 {
				line, oversized = nil, true
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 && !oversized {
				return nil, false, io.EOF
			}
		default:
			return nil, false, err
		}

		if oversized {
			return nil, true, nil
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) > s.maxRequestSize {
			return nil, true, nil
		}
		return line, false, nil
	}
}

// handleLine answers one request line. Only output failures are returned.
func (s *StdIOServer) handleLine(ctx context.Context, line []byte) error {
	logger := s.logger.WithFields(map[string]interface{}{
		"request_id": uuid.NewString(),
	})

	req, err := ParseRequest(line)
	if err == nil {
		logger = logger.WithFields(map[string]interface{}{
			"method": req.Method,
			"id":     string(req.ID),
		})
		logger.Debug("Received request")

		var result interface{}
		result, err = s.Dispatch(ctx, req)
		if err == nil {
			return s.writeResult(logger, req.ID, result)
		}
	}

	return s.reject(logger, err)
}

func (s *StdIOServer) rejectLine(err error) error {
	return s.reject(s.logger.WithFields(map[string]interface{}{
		"request_id": uuid.NewString(),
	}), err)
}

func (s *StdIOServer) reject(logger observability.Logger, err error) error {
	logger.WithFields(map[string]interface{}{
		"kind": KindOf(err),
	}).WithErr(err).Warn("Request failed")
	return s.writeError(err.Error())
}

func (s *StdIOServer) writeResult(logger observability.Logger, id json.RawMessage, result interface{}) error {
	data, err := json.Marshal(Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"kind": KindSerialization,
		}).WithErr(err).Warn("Failed to encode response")
		return s.writeError(fmt.Sprintf("failed to encode response: %v", err))
	}

	logger.Debug("Request handled")
	return s.writeLine(data)
}

func (s *StdIOServer) writeError(message string) error {
	data, err := json.Marshal(ErrorResponse{
		Error: message,
		Type:  TypeProcessingError,
	})
	if err != nil {
		data = []byte(fallbackErrorLine)
	}
	return s.writeLine(data)
}

// writeLine writes data and a newline, then flushes so the peer sees the
// line immediately.
func (s *StdIOServer) writeLine(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errServerClosed
	}

	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}
