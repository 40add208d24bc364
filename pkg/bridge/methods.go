package bridge

import (
	"context"

	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

func (b *Bridge) project(ctx context.Context, method, projectPath string) *protocol.Result {
	return b.Invoke(ctx, method, protocol.ProjectParams{ProjectPath: projectPath})
}

// LoadBoard loads the board of a project and reports its board_info.
func (b *Bridge) LoadBoard(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodLoadBoard, projectPath)
}

// PlaceComponent adds a footprint and saves the board.
func (b *Bridge) PlaceComponent(ctx context.Context, p protocol.PlaceParams) *protocol.Result {
	return b.Invoke(ctx, protocol.MethodPlaceComponent, p)
}

// MoveComponent repositions a footprint and saves the board.
func (b *Bridge) MoveComponent(ctx context.Context, p protocol.MoveParams) *protocol.Result {
	return b.Invoke(ctx, protocol.MethodMoveComponent, p)
}

// GetNets returns net_info and pad_info.
func (b *Bridge) GetNets(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodGetNets, projectPath)
}

// TrackRoutes adds one track per route and saves the board.
func (b *Bridge) TrackRoutes(ctx context.Context, p protocol.RoutesParams) *protocol.Result {
	return b.Invoke(ctx, protocol.MethodTrackRoutes, p)
}

func (b *Bridge) ExtractBasicInfo(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractBasicInfo, projectPath)
}

func (b *Bridge) ExtractDesignRules(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractDesignRules, projectPath)
}

func (b *Bridge) ExtractLayers(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractLayers, projectPath)
}

func (b *Bridge) ExtractPads(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractPads, projectPath)
}

func (b *Bridge) ExtractTracksVias(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractTracksVias, projectPath)
}

func (b *Bridge) ExtractZones(ctx context.Context, projectPath string) *protocol.Result {
	return b.project(ctx, protocol.MethodExtractZones, projectPath)
}

// SaveBoard writes the board to outputPath, or in place when it is empty.
func (b *Bridge) SaveBoard(ctx context.Context, projectPath, outputPath string) *protocol.Result {
	return b.Invoke(ctx, protocol.MethodSaveBoard, protocol.SaveParams{ProjectPath: projectPath, OutputPath: outputPath})
}
