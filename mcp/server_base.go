package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shaharia-lab/spacex-mcp/observability"
)

const (
	defaultCallTimeout    = 30 * time.Second
	defaultMaxRequestSize = 1024 * 1024
)

// ServerConfig holds all configuration for BaseServer
type ServerConfig struct {
	logger          observability.Logger
	protocolVersion string
	serverName      string
	serverVersion   string
	callTimeout     time.Duration
	maxRequestSize  int
}

// ServerConfigOption is a function that modifies ServerConfig
type ServerConfigOption func(*ServerConfig)

// UseLogger sets a custom logger
func UseLogger(logger observability.Logger) ServerConfigOption {
	return func(c *ServerConfig) {
		c.logger = logger
	}
}

// UseServerInfo sets server name and version
func UseServerInfo(name, version string) ServerConfigOption {
	return func(c *ServerConfig) {
		c.serverName = name
		c.serverVersion = version
	}
}

func UseProtocolVersion(version string) ServerConfigOption {
	return func(c *ServerConfig) {
		c.protocolVersion = version
	}
}

// UseCallTimeout bounds every tool invocation. Zero or negative disables the
// bound.
func UseCallTimeout(d time.Duration) ServerConfigOption {
	return func(c *ServerConfig) {
		c.callTimeout = d
	}
}

// UseMaxRequestSize sets the longest accepted request line in bytes.
func UseMaxRequestSize(n int) ServerConfigOption {
	return func(c *ServerConfig) {
		c.maxRequestSize = n
	}
}

func defaultConfig() *ServerConfig {
	return &ServerConfig{
		logger:          observability.NewNullLogger(),
		protocolVersion: ProtocolVersion,
		serverName:      defaultServerName,
		serverVersion:   serverVersion,
		callTimeout:     defaultCallTimeout,
		maxRequestSize:  defaultMaxRequestSize,
	}
}

// BaseServer owns the tool catalog and dispatches parsed requests to it. It
// is transport agnostic; StdIOServer drives it from a byte stream.
type BaseServer struct {
	protocolVersion string
	serverInfo      ServerInfo
	logger          observability.Logger
	callTimeout     time.Duration
	maxRequestSize  int

	tools     []*Tool
	toolIndex map[string]*Tool
}

// NewBaseServer creates a new BaseServer instance with the given options
func NewBaseServer(opts ...ServerConfigOption) (*BaseServer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.serverName == "" {
		return nil, errors.New("server name cannot be empty")
	}
	if cfg.maxRequestSize <= 0 {
		return nil, fmt.Errorf("invalid max request size %d: must be positive", cfg.maxRequestSize)
	}
	if cfg.logger == nil {
		cfg.logger = observability.NewNullLogger()
	}

	return &BaseServer{
		protocolVersion: cfg.protocolVersion,
		serverInfo: ServerInfo{
			Name:    cfg.serverName,
			Version: cfg.serverVersion,
		},
		logger:         cfg.logger,
		callTimeout:    cfg.callTimeout,
		maxRequestSize: cfg.maxRequestSize,
		toolIndex:      make(map[string]*Tool),
	}, nil
}

// AddTools registers tools in order. Registration is all-or-nothing.
func (s *BaseServer) AddTools(tools ...Tool) error {
	added := make([]*Tool, 0, len(tools))
	names := make(map[string]bool, len(tools))

	for i := range tools {
		tool := tools[i]
		if _, exists := s.toolIndex[tool.Name]; exists || names[tool.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
		}
		if err := validateTool(&tool); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidTool, tool.Name, err)
		}
		names[tool.Name] = true
		added = append(added, &tool)
	}

	for _, tool := range added {
		s.tools = append(s.tools, tool)
		s.toolIndex[tool.Name] = tool
	}
	return nil
}

// Announcement returns the capability announcement, listing tools in
// registration order.
func (s *BaseServer) Announcement() Announcement {
	descriptors := make([]ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		descriptors = append(descriptors, t.Descriptor())
	}

	return Announcement{
		ProtocolVersion: s.protocolVersion,
		ServerInfo:      s.serverInfo,
		Capabilities: Capabilities{
			Tools: descriptors,
		},
	}
}

// Dispatch runs the tool named by req.Method and returns its result. Every
// error is a *ProcessingError.
func (s *BaseServer) Dispatch(ctx context.Context, req *Request) (result interface{}, err error) {
	ctx, span := observability.StartSpan(ctx, "BaseServer.Dispatch")
	defer func() { observability.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("method", req.Method))

	tool, ok := s.toolIndex[req.Method]
	if !ok {
		return nil, newProcessingError(KindUnknownMethod, req.Method, "Unknown method: %s", req.Method)
	}

	if err = tool.validateParams(req.Params); err != nil {
		return nil, err
	}

	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	result, err = s.invoke(callCtx, tool, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, newProcessingError(KindGateway, tool.Name, "%s timed out after %s: %w", tool.Name, s.callTimeout, err)
		}
		return nil, &ProcessingError{Kind: KindGateway, Method: tool.Name, Err: err}
	}
	return result, nil
}

func (s *BaseServer) invoke(ctx context.Context, tool *Tool, req *Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"tool":  tool.Name,
				"panic": r,
			}).Error("Tool handler panicked")
			result, err = nil, fmt.Errorf("%s failed: internal error", tool.Name)
		}
	}()
	return tool.Handler(ctx, req.Params)
}
