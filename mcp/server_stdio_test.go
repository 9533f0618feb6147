package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/spacex-mcp/observability"
)

type failingWriter struct {
	failAfter int
	writes    int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.failAfter {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

func launchTools() []Tool {
	return []Tool{
		staticTool("getLatestLaunch", map[string]string{"id": "latest", "name": "Latest Launch"}),
		idTool("getLaunchById", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
			var p struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, err
			}
			return map[string]string{"id": p.ID}, nil
		}),
	}
}

// runServer feeds input to a fresh server and returns its output lines.
func runServer(t *testing.T, input string, tools []Tool, opts ...ServerConfigOption) ([]string, error) {
	t.Helper()
	base := newTestBaseServer(t, opts...)
	require.NoError(t, base.AddTools(tools...))

	out := &bytes.Buffer{}
	server := NewStdIOServer(base, strings.NewReader(input), out)
	err := server.Run(context.Background())
	assert.Equal(t, StateTerminated, server.State())

	text := strings.TrimSuffix(out.String(), "\n")
	if text == "" {
		return nil, err
	}
	return strings.Split(text, "\n"), err
}

func TestStdIOServer_AnnouncesFirst(t *testing.T) {
	lines, err := runServer(t, "", launchTools(), UseServerInfo("spacex-mcp-server", "1.0.0"))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.JSONEq(t, `{
		"protocolVersion": "1.0",
		"serverInfo": {"name": "spacex-mcp-server", "version": "1.0.0"},
		"capabilities": {"tools": [
			{"name": "getLatestLaunch", "description": "returns getLatestLaunch",
			 "inputSchema": {"type": "object", "properties": {}, "required": []}},
			{"name": "getLaunchById", "description": "looks up getLaunchById",
			 "inputSchema": {"type": "object", "properties": {"id": "string"}, "required": ["id"]}}
		]}
	}`, lines[0])
}

func TestStdIOServer_SuccessEnvelope(t *testing.T) {
	lines, err := runServer(t, `{"method":"getLatestLaunch","id":7}`+"\n", launchTools())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, `{"jsonrpc":"2.0","id":7,"result":{"id":"latest","name":"Latest Launch"}}`, lines[1])
}

func TestStdIOServer_OneLinePerRequestInOrder(t *testing.T) {
	input := strings.Join([]string{
		`{"method":"getLatestLaunch","id":1}`,
		`{"method":"bogus","id":2}`,
		`not json`,
		``,
		`{"method":"getLaunchById","id":"x"}`,
		`{"method":"getLaunchById","params":{"id":"5eb87cd9ffd86e000604b32a"},"id":"y"}`,
		`{"method":"getLatestLaunch"}`,
	}, "\n") + "\n"

	lines, err := runServer(t, input, launchTools())
	require.NoError(t, err)
	require.Len(t, lines, 8)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{"id":"latest","name":"Latest Launch"}}`, lines[1])
	assert.JSONEq(t, `{"error":"Unknown method: bogus","type":"processing_error"}`, lines[2])

	for _, line := range lines[3:6] {
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		assert.Equal(t, TypeProcessingError, resp.Type)
		assert.NotEmpty(t, resp.Error)
	}
	assert.Contains(t, lines[3], "invalid JSON")
	assert.Contains(t, lines[4], "empty request line")
	assert.Contains(t, lines[5], "invalid params for getLaunchById")

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"y","result":{"id":"5eb87cd9ffd86e000604b32a"}}`, lines[6])
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{"id":"latest","name":"Latest Launch"}}`, lines[7])
}

func TestStdIOServer_RepeatedRequestsAreIdempotent(t *testing.T) {
	req := `{"method":"getLaunchById","params":{"id":"abc"},"id":3}` + "\n"
	lines, err := runServer(t, req+req+req, launchTools())
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, lines[1], lines[2])
	assert.Equal(t, lines[2], lines[3])
}

func TestStdIOServer_SerializationFailure(t *testing.T) {
	tools := append(launchTools(), staticTool("getInfinity", math.Inf(1)))
	input := `{"method":"getInfinity","id":1}` + "\n" + `{"method":"getLatestLaunch","id":2}` + "\n"

	lines, err := runServer(t, input, tools)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.Equal(t, TypeProcessingError, resp.Type)
	assert.Contains(t, resp.Error, "failed to encode response")
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":{"id":"latest","name":"Latest Launch"}}`, lines[2])
}

func TestStdIOServer_OversizedLineIsRejected(t *testing.T) {
	input := `{"method":"getLatestLaunch","id":1}` + "\n" +
		`{"method":"getLaunchById","params":{"id":"` + strings.Repeat("a", 200) + `"},"id":2}` + "\n" +
		`{"method":"getLatestLaunch","id":3}` + "\n"

	lines, err := runServer(t, input, launchTools(), UseMaxRequestSize(64))
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{"id":"latest","name":"Latest Launch"}}`, lines[1])
	assert.JSONEq(t, `{"error":"request line exceeds 64 bytes","type":"processing_error"}`, lines[2])
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"id":"latest","name":"Latest Launch"}}`, lines[3])
}

func TestStdIOServer_LinesLongerThanReadBuffer(t *testing.T) {
	longID := strings.Repeat("b", 10000)
	input := `{"method":"getLaunchById","params":{"id":"` + longID + `"},"id":1}` + "\r\n" +
		`{"method":"getLaunchById","params":{"id":"` + strings.Repeat("c", 50000) + `"},"id":2}` + "\n" +
		`{"method":"getLatestLaunch","id":3}`

	lines, err := runServer(t, input, launchTools(), UseMaxRequestSize(20000))
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{"id":"`+longID+`"}}`, lines[1])
	assert.JSONEq(t, `{"error":"request line exceeds 20000 bytes","type":"processing_error"}`, lines[2])
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"id":"latest","name":"Latest Launch"}}`, lines[3])
}

func TestStdIOServer_ReadErrorIsFatal(t *testing.T) {
	base := newTestBaseServer(t)
	server := NewStdIOServer(base, iotest.ErrReader(errors.New("stdin closed badly")), io.Discard)

	err := server.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read request")
}

func TestStdIOServer_WriteFailureStopsServer(t *testing.T) {
	t.Run("announcement", func(t *testing.T) {
		base := newTestBaseServer(t)
		server := NewStdIOServer(base, strings.NewReader(`{"method":"x"}`+"\n"), &failingWriter{})
		err := server.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to announce capabilities")
	})

	t.Run("response", func(t *testing.T) {
		base := newTestBaseServer(t)
		require.NoError(t, base.AddTools(launchTools()...))
		server := NewStdIOServer(base, strings.NewReader(`{"method":"getLatestLaunch"}`+"\n"), &failingWriter{failAfter: 1})
		err := server.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken pipe")
	})
}

func TestStdIOServer_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	base := newTestBaseServer(t)
	server := NewStdIOServer(base, pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return server.State() == StateAwaitingLine
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("server did not stop after cancel")
	}
	assert.Equal(t, StateTerminated, server.State())
}

// lockedBuffer lets the test read output while the server goroutine writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStdIOServer_NoWritesAfterCancel(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	slow := staticTool("getSlow", nil)
	slow.Handler = func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		close(started)
		defer close(finished)
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	}

	base := newTestBaseServer(t)
	require.NoError(t, base.AddTools(slow))

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	out := &lockedBuffer{}
	server := NewStdIOServer(base, pr, out)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	go func() {
		_, _ = pw.Write([]byte(`{"method":"getSlow","id":1}` + "\n"))
	}()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
	atReturn := out.String()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, atReturn, out.String())
	assert.NotContains(t, out.String(), "late")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestStdIOServer_StateDuringProcessing(t *testing.T) {
	base := newTestBaseServer(t)
	var server *StdIOServer
	var seen LifecycleState
	probe := staticTool("getState", nil)
	probe.Handler = func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		seen = server.State()
		return seen.String(), nil
	}
	require.NoError(t, base.AddTools(probe))

	out := &bytes.Buffer{}
	server = NewStdIOServer(base, strings.NewReader(`{"method":"getState","id":1}`+"\n"), out)
	assert.Equal(t, StateStarting, server.State())

	require.NoError(t, server.Run(context.Background()))
	assert.Equal(t, StateProcessing, seen)
	assert.Contains(t, out.String(), `"result":"processing"`)
}

func TestStdIOServer_LogsRequestFailures(t *testing.T) {
	logs := &bytes.Buffer{}
	logger, err := observability.NewLogger(observability.BackendLogrus, "debug", logs)
	require.NoError(t, err)

	_, err = runServer(t, `{"method":"bogus","id":1}`+"\n", launchTools(), UseLogger(logger))
	require.NoError(t, err)

	var failure map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "Request failed" {
			failure = entry
		}
	}
	require.NotNil(t, failure)
	assert.Equal(t, "unknown_method", failure["kind"])
	assert.Equal(t, "bogus", failure["method"])
	assert.NotEmpty(t, failure["request_id"])
	assert.Equal(t, "Unknown method: bogus", failure["error"])
}

func TestLifecycleState_String(t *testing.T) {
	assert.Equal(t, "announcing_capabilities", StateAnnouncing.String())
	assert.Equal(t, "awaiting_line", StateAwaitingLine.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "LifecycleState(42)", LifecycleState(42).String())
}
