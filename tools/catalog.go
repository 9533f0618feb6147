// Package tools exposes the SpaceX data gateway as a fixed catalog of mcp
// tools.
package tools

import (
	"fmt"

	"github.com/shaharia-lab/spacex-mcp/mcp"
)

// Operation identifies one catalog entry. The set is closed.
type Operation int

const (
	GetAllLaunches Operation = iota
	GetLaunchByID
	GetUpcomingLaunches
	GetPastLaunches
	GetLatestLaunch
	GetNextLaunch
	GetAllRockets
	GetRocketByID
	GetAllShips
	GetShipByID
	GetAllLaunchpads
	GetLaunchpadByID

	numOperations
)

// Operations returns every operation in catalog order.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for op := Operation(0); op < numOperations; op++ {
		ops = append(ops, op)
	}
	return ops
}

type entry struct {
	name        string
	description string
	params      []mcp.Param
}

var idParam = []mcp.Param{{Name: "id", Type: "string"}}

var catalog = [numOperations]entry{
	GetAllLaunches:      {name: "getAllLaunches", description: "Get all SpaceX launches"},
	GetLaunchByID:       {name: "getLaunchById", description: "Get a specific launch by ID", params: idParam},
	GetUpcomingLaunches: {name: "getUpcomingLaunches", description: "Get upcoming launches"},
	GetPastLaunches:     {name: "getPastLaunches", description: "Get past launches"},
	GetLatestLaunch:     {name: "getLatestLaunch", description: "Get the latest launch"},
	GetNextLaunch:       {name: "getNextLaunch", description: "Get the next launch"},
	GetAllRockets:       {name: "getAllRockets", description: "Get all SpaceX rockets"},
	GetRocketByID:       {name: "getRocketById", description: "Get a specific rocket by ID", params: idParam},
	GetAllShips:         {name: "getAllShips", description: "Get all SpaceX ships"},
	GetShipByID:         {name: "getShipById", description: "Get a specific ship by ID", params: idParam},
	GetAllLaunchpads:    {name: "getAllLaunchpads", description: "Get all SpaceX launchpads"},
	GetLaunchpadByID:    {name: "getLaunchpadById", description: "Get a specific launchpad by ID", params: idParam},
}

// String returns the tool name clients use on the wire.
func (op Operation) String() string {
	if op < 0 || op >= numOperations {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return catalog[op].name
}

// Description returns the human readable tool description.
func (op Operation) Description() string {
	if op < 0 || op >= numOperations {
		return ""
	}
	return catalog[op].description
}

// ParseOperation looks up an operation by its wire name. Matching is case
// sensitive.
func ParseOperation(name string) (Operation, bool) {
	for op := Operation(0); op < numOperations; op++ {
		if catalog[op].name == name {
			return op, true
		}
	}
	return -1, false
}
