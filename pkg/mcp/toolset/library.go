package toolset

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libcheck"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/project"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
	"github.com/OpenTraceLab/kicadbridge/pkg/mcp/msi"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

func (ts *ToolSet) ValidateSymbolStructure(_ context.Context,
	_ *mcp.CallToolRequest, args msi.ValidateSymbolParams,
) (*mcp.CallToolResult, any, error) {
	report := libcheck.ValidateSymbol(args.SymbolContent)
	return ts.reply(msi.ValidateSymbolStructure.Name, report.Success, report)
}

func (ts *ToolSet) ValidateFootprintStructure(_ context.Context,
	_ *mcp.CallToolRequest, args msi.ValidateFootprintParams,
) (*mcp.CallToolResult, any, error) {
	report := libcheck.ValidateFootprint(args.FootprintContent)
	return ts.reply(msi.ValidateFootprintStructure.Name, report.Success, report)
}

func (ts *ToolSet) ValidateProject(_ context.Context,
	_ *mcp.CallToolRequest, args msi.ProjectParams,
) (*mcp.CallToolResult, any, error) {
	v := project.Validate(args.ProjectPath)
	return ts.reply(msi.ValidateProject.Name, v.Valid, v)
}

func (ts *ToolSet) requireStore() *protocol.Result {
	if ts.store == nil {
		return protocol.Failuref(kicaderr.KindNotFound, "no library directories configured")
	}
	return nil
}

func (ts *ToolSet) SaveFootprintMod(_ context.Context,
	_ *mcp.CallToolRequest, args msi.SaveFootprintParams,
) (*mcp.CallToolResult, any, error) {
	tool := msi.SaveFootprintMod.Name
	if res := ts.requireStore(); res != nil {
		return ts.result(tool, res)
	}
	path, err := ts.store.SaveFootprint(args.ModData, args.FootprintName, args.LibName)
	if err != nil {
		return ts.result(tool, protocol.Failure(err))
	}
	return ts.result(tool, protocol.OK("Footprint saved").With("path", path))
}

func (ts *ToolSet) SaveSymbol(_ context.Context,
	_ *mcp.CallToolRequest, args msi.SaveSymbolParams,
) (*mcp.CallToolResult, any, error) {
	tool := msi.SaveSymbol.Name
	if res := ts.requireStore(); res != nil {
		return ts.result(tool, res)
	}
	path, err := ts.store.SaveSymbol(args.FileData, args.SymbolName, args.LibName)
	if err != nil {
		return ts.result(tool, protocol.Failure(err))
	}
	return ts.result(tool, protocol.OK("Symbol saved").With("path", path))
}

func (ts *ToolSet) AddFootprintToLib(_ context.Context,
	_ *mcp.CallToolRequest, args msi.AddLibParams,
) (*mcp.CallToolResult, any, error) {
	return ts.register(msi.AddFootprintToLib.Name, libtable.Footprint, args)
}

func (ts *ToolSet) AddSymbolToLib(_ context.Context,
	_ *mcp.CallToolRequest, args msi.AddLibParams,
) (*mcp.CallToolResult, any, error) {
	return ts.register(msi.AddSymbolToLib.Name, libtable.Symbol, args)
}

func (ts *ToolSet) register(tool string, kind libtable.Kind, args msi.AddLibParams) (*mcp.CallToolResult, any, error) {
	if res := ts.requireStore(); res != nil {
		return ts.result(tool, res)
	}
	uri, err := ts.store.Register(kind, args.LibName, args.LibPath, args.Description)
	if err != nil {
		return ts.result(tool, protocol.Failure(err))
	}
	return ts.result(tool, protocol.OK("Library registered").With("path", uri))
}
