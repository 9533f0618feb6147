package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/shaharia-lab/spacex-mcp/observability"
)

// ErrClientBroken is returned once a call has been abandoned mid-read; the
// stream position is unknown afterwards.
var ErrClientBroken = errors.New("client stream is out of sync")

// RemoteError is a failure envelope received from the server.
type RemoteError struct {
	Message string
	Type    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type StdIOClientConfig struct {
	Logger          observability.Logger
	Reader          io.Reader
	Writer          io.Writer
	MaxResponseSize int
}

// StdIOClient speaks the line protocol to a server whose stdout is Reader and
// whose stdin is Writer. Calls are serialized.
type StdIOClient struct {
	mu           sync.Mutex
	logger       observability.Logger
	lines        *bufio.Scanner
	writer       io.Writer
	announcement *Announcement
	nextID       int64
	broken       bool
}

func NewStdIOClient(config StdIOClientConfig) *StdIOClient {
	if config.Logger == nil {
		config.Logger = observability.NewNullLogger()
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = 64 * 1024 * 1024
	}

	initial := 64 * 1024
	if config.MaxResponseSize < initial {
		initial = config.MaxResponseSize
	}
	scanner := bufio.NewScanner(config.Reader)
	scanner.Buffer(make([]byte, 0, initial), config.MaxResponseSize)

	return &StdIOClient{
		logger: config.Logger,
		lines:  scanner,
		writer: config.Writer,
		nextID: 1,
	}
}

// Connect reads the capability announcement. It must be called once before
// Call.
func (c *StdIOClient) Connect(ctx context.Context) (*Announcement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.announcement != nil {
		return c.announcement, nil
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read capability announcement: %w", err)
	}

	var a Announcement
	if err := json.Unmarshal(line, &a); err != nil {
		return nil, fmt.Errorf("failed to parse capability announcement: %w", err)
	}
	c.announcement = &a

	c.logger.WithFields(map[string]interface{}{
		"server": a.ServerInfo.Name,
		"tools":  len(a.Capabilities.Tools),
	}).Debug("Connected to tool server")
	return c.announcement, nil
}

// Tools lists the tools announced by the server.
func (c *StdIOClient) Tools() []ToolDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.announcement == nil {
		return nil
	}
	return c.announcement.Capabilities.Tools
}

// Call invokes method with params (any JSON-encodable value, or nil) and
// returns the raw result.
func (c *StdIOClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.announcement == nil {
		return nil, errors.New("client is not connected")
	}

	id := json.RawMessage(strconv.FormatInt(c.nextID, 10))
	c.nextID++

	req := Request{ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if _, err := c.writer.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return nil, err
	}
	return decodeReply(line, id)
}

func decodeReply(line []byte, id json.RawMessage) (json.RawMessage, error) {
	var probe struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *string         `json:"error"`
		Type    string          `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if probe.Error != nil {
		return nil, &RemoteError{Message: *probe.Error, Type: probe.Type}
	}
	if probe.JSONRPC != JSONRPCVersion {
		return nil, fmt.Errorf("unexpected response: %s", line)
	}
	if !bytes.Equal(probe.ID, id) {
		return nil, fmt.Errorf("response id %s does not match request id %s", probe.ID, id)
	}
	return probe.Result, nil
}

// readLine blocks for the next line or until ctx is done. Abandoning a read
// marks the client broken.
func (c *StdIOClient) readLine(ctx context.Context) ([]byte, error) {
	if c.broken {
		return nil, ErrClientBroken
	}

	type lineResult struct {
		line []byte
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		if c.lines.Scan() {
			ch <- lineResult{line: append([]byte(nil), c.lines.Bytes()...)}
			return
		}
		err := c.lines.Err()
		if err == nil {
			err = io.EOF
		}
		ch <- lineResult{err: err}
	}()

	select {
	case <-ctx.Done():
		c.broken = true
		return nil, ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
