package toolset

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/OpenTraceLab/kicadbridge/pkg/mcp/msi"
)

func (ts *ToolSet) registerPrompts(server *mcp.Server) {
	for _, p := range []*mcp.Prompt{
		msi.GeneratePCBRoutes,
		msi.AnalyzeDatasheet,
		msi.WriteFootprint,
		msi.WriteSymbol,
		msi.SaveLibraryParts,
	} {
		server.AddPrompt(p, ts.prompt)
	}
}

func (ts *ToolSet) prompt(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Name
	text, ok := msi.PromptText[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt %q", name)
	}
	ts.log.WithField("prompt", name).Debug("Prompt requested")
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}, nil
}
