package toolset

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/board"
	"github.com/OpenTraceLab/kicadbridge/pkg/mcp/msi"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

func (ts *ToolSet) LoadPCBBoard(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.ProjectParams,
) (*mcp.CallToolResult, any, error) {
	res := ts.invoker.Invoke(ctx, protocol.MethodLoadBoard, protocol.ProjectParams{ProjectPath: args.ProjectPath})
	return ts.result(msi.LoadPCBBoard.Name, res)
}

func (ts *ToolSet) PlaceComponent(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.PlaceComponentParams,
) (*mcp.CallToolResult, any, error) {
	res := ts.invoker.Invoke(ctx, protocol.MethodPlaceComponent, protocol.PlaceParams{
		ProjectPath: args.ProjectPath,
		ComponentID: args.ComponentID,
		Library:     args.Library,
		Position:    args.Position.Raw(),
		Reference:   args.Reference,
		Value:       args.Value,
		Rotation:    args.Rotation,
		Layer:       args.Layer,
		OutputPath:  args.OutputPath,
	})
	return ts.result(msi.PlaceComponent.Name, res)
}

func (ts *ToolSet) MoveComponent(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.MoveComponentParams,
) (*mcp.CallToolResult, any, error) {
	res := ts.invoker.Invoke(ctx, protocol.MethodMoveComponent, protocol.MoveParams{
		ProjectPath: args.ProjectPath,
		Reference:   args.Reference,
		Position:    args.Position.Raw(),
		Rotation:    args.Rotation,
		OutputPath:  args.OutputPath,
	})
	return ts.result(msi.MoveComponent.Name, res)
}

func (ts *ToolSet) GetNets(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.ProjectParams,
) (*mcp.CallToolResult, any, error) {
	res := ts.invoker.Invoke(ctx, protocol.MethodGetNets, protocol.ProjectParams{ProjectPath: args.ProjectPath})
	return ts.result(msi.GetNets.Name, res)
}

func (ts *ToolSet) TrackRoutes(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.TrackRoutesParams,
) (*mcp.CallToolResult, any, error) {
	routes := make([]board.RouteRequest, 0, len(args.Routes))
	for _, r := range args.Routes {
		routes = append(routes, board.RouteRequest{
			Start: r.Start.Raw(),
			End:   r.End.Raw(),
			Layer: r.Layer,
			Width: r.Width,
			Net:   r.Net,
		})
	}
	res := ts.invoker.Invoke(ctx, protocol.MethodTrackRoutes, protocol.RoutesParams{
		ProjectPath: args.ProjectPath,
		Routes:      routes,
		OutputPath:  args.OutputPath,
	})
	return ts.result(msi.TrackRoutes.Name, res)
}

// extract returns the handler of a read-only pcb_* tool.
func (ts *ToolSet) extract(tool, method string) mcp.ToolHandlerFor[msi.ProjectParams, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args msi.ProjectParams) (*mcp.CallToolResult, any, error) {
		res := ts.invoker.Invoke(ctx, method, protocol.ProjectParams{ProjectPath: args.ProjectPath})
		return ts.result(tool, res)
	}
}
