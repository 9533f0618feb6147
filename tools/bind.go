package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaharia-lab/spacex-mcp/mcp"
	"github.com/shaharia-lab/spacex-mcp/spacex"
)

// Gateway is the read-only view of the SpaceX API the catalog needs.
// *spacex.Client satisfies it.
type Gateway interface {
	Launches(ctx context.Context) ([]spacex.Launch, error)
	Launch(ctx context.Context, id string) (*spacex.Launch, error)
	UpcomingLaunches(ctx context.Context) ([]spacex.Launch, error)
	PastLaunches(ctx context.Context) ([]spacex.Launch, error)
	LatestLaunch(ctx context.Context) (*spacex.Launch, error)
	NextLaunch(ctx context.Context) (*spacex.Launch, error)
	Rockets(ctx context.Context) ([]spacex.Rocket, error)
	Rocket(ctx context.Context, id string) (*spacex.Rocket, error)
	Ships(ctx context.Context) ([]spacex.Ship, error)
	Ship(ctx context.Context, id string) (*spacex.Ship, error)
	Launchpads(ctx context.Context) ([]spacex.Launchpad, error)
	Launchpad(ctx context.Context, id string) (*spacex.Launchpad, error)
}

var _ Gateway = (*spacex.Client)(nil)

// IDParams are the parameters of every lookup-by-id tool.
type IDParams struct {
	ID string `json:"id"`
}

func list[T any](fn func(context.Context) ([]T, error)) mcp.ToolHandler {
	return func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		records, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []T{}
		}
		return records, nil
	}
}

func single[T any](fn func(context.Context) (*T, error)) mcp.ToolHandler {
	return func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return fn(ctx)
	}
}

func byID[T any](fn func(context.Context, string) (*T, error)) mcp.ToolHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var p IDParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("failed to decode params: %w", err)
		}
		return fn(ctx, p.ID)
	}
}

func handlers(gw Gateway) map[Operation]mcp.ToolHandler {
	return map[Operation]mcp.ToolHandler{
		GetAllLaunches:      list(gw.Launches),
		GetLaunchByID:       byID(gw.Launch),
		GetUpcomingLaunches: list(gw.UpcomingLaunches),
		GetPastLaunches:     list(gw.PastLaunches),
		GetLatestLaunch:     single(gw.LatestLaunch),
		GetNextLaunch:       single(gw.NextLaunch),
		GetAllRockets:       list(gw.Rockets),
		GetRocketByID:       byID(gw.Rocket),
		GetAllShips:         list(gw.Ships),
		GetShipByID:         byID(gw.Ship),
		GetAllLaunchpads:    list(gw.Launchpads),
		GetLaunchpadByID:    byID(gw.Launchpad),
	}
}

// Bind builds one tool per operation, in catalog order, backed by gw.
func Bind(gw Gateway) ([]mcp.Tool, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	return bind(handlers(gw))
}

func bind(table map[Operation]mcp.ToolHandler) ([]mcp.Tool, error) {
	tools := make([]mcp.Tool, 0, numOperations)
	for _, op := range Operations() {
		e := catalog[op]
		if e.name == "" || e.description == "" {
			return nil, fmt.Errorf("operation %d has no catalog entry", int(op))
		}
		handler, ok := table[op]
		if !ok || handler == nil {
			return nil, fmt.Errorf("operation %s has no handler", op)
		}
		tools = append(tools, mcp.Tool{
			Name:        e.name,
			Description: e.description,
			Params:      append([]mcp.Param(nil), e.params...),
			Handler:     handler,
		})
	}
	return tools, nil
}

// Register binds the catalog to gw and adds it to server.
func Register(server *mcp.BaseServer, gw Gateway) error {
	tools, err := Bind(gw)
	if err != nil {
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	if err := server.AddTools(tools...); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	return nil
}
