// Package toolset implements the MCP tools on top of the worker bridge and
// the library store.
package toolset

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
	"github.com/OpenTraceLab/kicadbridge/pkg/mcp/msi"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

// Invoker runs one worker method. *bridge.Bridge implements it.
type Invoker interface {
	Invoke(ctx context.Context, method string, params any) *protocol.Result
}

// Recorder counts tool calls.
type Recorder interface {
	ObserveToolCall(tool string, success bool)
}

type ToolSet struct {
	invoker Invoker
	store   *libtable.Store // nil disables the library tools
	log     logrus.FieldLogger
	metrics Recorder
}

type Option func(*ToolSet)

func WithStore(store *libtable.Store) Option {
	return func(ts *ToolSet) {
		ts.store = store
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(ts *ToolSet) {
		ts.log = log
	}
}

func WithMetrics(r Recorder) Option {
	return func(ts *ToolSet) {
		ts.metrics = r
	}
}

func New(invoker Invoker, opts ...Option) (*ToolSet, error) {
	if invoker == nil {
		return nil, errors.New("toolset needs a worker invoker")
	}
	ts := &ToolSet{invoker: invoker, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

func (ts *ToolSet) RegisterServer(server *mcp.Server) error {
	mcp.AddTool(server, msi.LoadPCBBoard, ts.LoadPCBBoard)
	mcp.AddTool(server, msi.PlaceComponent, ts.PlaceComponent)
	mcp.AddTool(server, msi.MoveComponent, ts.MoveComponent)
	mcp.AddTool(server, msi.GetNets, ts.GetNets)
	mcp.AddTool(server, msi.TrackRoutes, ts.TrackRoutes)
	mcp.AddTool(server, msi.PCBBasicInfo, ts.extract(msi.PCBBasicInfo.Name, protocol.MethodExtractBasicInfo))
	mcp.AddTool(server, msi.PCBDesignRules, ts.extract(msi.PCBDesignRules.Name, protocol.MethodExtractDesignRules))
	mcp.AddTool(server, msi.PCBLayers, ts.extract(msi.PCBLayers.Name, protocol.MethodExtractLayers))
	mcp.AddTool(server, msi.PCBPads, ts.extract(msi.PCBPads.Name, protocol.MethodExtractPads))
	mcp.AddTool(server, msi.PCBTracksVias, ts.extract(msi.PCBTracksVias.Name, protocol.MethodExtractTracksVias))
	mcp.AddTool(server, msi.PCBZones, ts.extract(msi.PCBZones.Name, protocol.MethodExtractZones))
	mcp.AddTool(server, msi.ValidateSymbolStructure, ts.ValidateSymbolStructure)
	mcp.AddTool(server, msi.ValidateFootprintStructure, ts.ValidateFootprintStructure)
	mcp.AddTool(server, msi.SaveFootprintMod, ts.SaveFootprintMod)
	mcp.AddTool(server, msi.SaveSymbol, ts.SaveSymbol)
	mcp.AddTool(server, msi.AddFootprintToLib, ts.AddFootprintToLib)
	mcp.AddTool(server, msi.AddSymbolToLib, ts.AddSymbolToLib)
	mcp.AddTool(server, msi.ValidateProject, ts.ValidateProject)
	ts.registerPrompts(server)
	return nil
}

// reply renders v as the JSON text of the tool result. Failures are tool
// errors, not protocol errors, so the client sees the kind and message.
func (ts *ToolSet) reply(tool string, success bool, v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	if ts.metrics != nil {
		ts.metrics.ObserveToolCall(tool, success)
	}
	ts.log.WithFields(logrus.Fields{"tool": tool, "success": success}).Debug("Tool call finished")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: !success,
	}, nil, nil
}

func (ts *ToolSet) result(tool string, res *protocol.Result) (*mcp.CallToolResult, any, error) {
	return ts.reply(tool, res.Success, res)
}
