package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/pkg/bridge"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/board"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "KiCad board operations",
	Long: `Commands for working with KiCad boards (.kicad_pcb).

Every subcommand except "nets" runs through the worker, exactly like the
MCP tools, and prints the result envelope.`,
}

var boardNetsCmd = &cobra.Command{
	Use:   "nets <board_file> [net_name]",
	Short: "Show board net information",
	Long: `Display information about nets in a board file. The file is parsed in
this process; no worker is needed.

Without net_name: Lists all nets with pad/track/via counts
With net_name: Shows detailed information for that specific net`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBoardNets,
}

var boardInfoCmd = &cobra.Command{
	Use:   "info <board_file>",
	Short: "Summarize a board file",
	Long:  `Prints the board's format version, item counts and outline size. The file is parsed in this process.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardInfo,
}

var boardLoadCmd = &cobra.Command{
	Use:   "load <project>",
	Short: "Load a board and report its footprint and layer counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
			return b.LoadBoard(cmd.Context(), args[0])
		})
	},
}

var boardNetlistCmd = &cobra.Command{
	Use:   "netlist <project>",
	Short: "List nets and the pads on each net",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
			return b.GetNets(cmd.Context(), args[0])
		})
	},
}

var (
	placeX, placeY float64
	placeUnit      string
	placeRef       string
	placeValue     string
	placeRotation  float64
	placeLayer     string
	outputPath     string
)

var boardPlaceCmd = &cobra.Command{
	Use:     "place <project> <library:footprint>",
	Short:   "Place a new footprint and save the board",
	Example: `  kicadbridge board place demo.kicad_pro Resistor_SMD:R_0603_1608Metric --x 20 --y 15 --value 10k`,
	Args:    cobra.ExactArgs(2),
	RunE:    runBoardPlace,
}

var moveRotation float64

var boardMoveCmd = &cobra.Command{
	Use:   "move <project> <reference>",
	Short: "Move a footprint and save the board",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardMove,
}

var (
	routeFrom  string
	routeTo    string
	routeLayer string
	routeWidth float64
	routeNet   string
)

var boardRouteCmd = &cobra.Command{
	Use:   "route <project>",
	Short: "Add one straight track and save the board",
	Long: `Adds one straight track. Endpoints are pads ("R1.2") or coordinates
("12.5,30") in the unit given by --unit.`,
	Example: `  kicadbridge board route demo.kicad_pro --from R1.1 --to U1.3 --net GND --layer F.Cu --width 0.25`,
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardRoute,
}

var boardSaveCmd = &cobra.Command{
	Use:   "save <project>",
	Short: "Save the board, optionally to another file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
			return b.SaveBoard(cmd.Context(), args[0], outputPath)
		})
	},
}

// extractors maps the "board extract" section names to bridge calls.
var extractors = map[string]func(*bridge.Bridge, *cobra.Command, string) *protocol.Result{
	"basic":  func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractBasicInfo(cmd.Context(), p) },
	"rules":  func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractDesignRules(cmd.Context(), p) },
	"layers": func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractLayers(cmd.Context(), p) },
	"pads":   func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractPads(cmd.Context(), p) },
	"tracks": func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractTracksVias(cmd.Context(), p) },
	"zones":  func(b *bridge.Bridge, cmd *cobra.Command, p string) *protocol.Result { return b.ExtractZones(cmd.Context(), p) },
}

var boardExtractCmd = &cobra.Command{
	Use:       "extract <basic|rules|layers|pads|tracks|zones> <project>",
	Short:     "Extract one section of board data",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"basic", "rules", "layers", "pads", "tracks", "zones"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fn, ok := extractors[args[0]]
		if !ok {
			return fmt.Errorf("unknown section %q", args[0])
		}
		return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
			return fn(b, cmd, args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardNetsCmd, boardInfoCmd, boardLoadCmd, boardNetlistCmd, boardPlaceCmd,
		boardMoveCmd, boardRouteCmd, boardSaveCmd, boardExtractCmd)

	for _, c := range []*cobra.Command{boardPlaceCmd, boardMoveCmd, boardRouteCmd, boardSaveCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "write the board here instead of overwriting it")
	}
	for _, c := range []*cobra.Command{boardPlaceCmd, boardMoveCmd} {
		c.Flags().Float64Var(&placeX, "x", 0, "x coordinate")
		c.Flags().Float64Var(&placeY, "y", 0, "y coordinate")
		_ = c.MarkFlagRequired("x")
		_ = c.MarkFlagRequired("y")
	}
	for _, c := range []*cobra.Command{boardPlaceCmd, boardMoveCmd, boardRouteCmd} {
		c.Flags().StringVar(&placeUnit, "unit", "mm", "coordinate unit [mm, inch]")
	}

	boardPlaceCmd.Flags().StringVar(&placeRef, "ref", "", "reference designator (default: next free for the footprint's prefix)")
	boardPlaceCmd.Flags().StringVar(&placeValue, "value", "", "value field")
	boardPlaceCmd.Flags().Float64Var(&placeRotation, "rotation", 0, "rotation in degrees")
	boardPlaceCmd.Flags().StringVar(&placeLayer, "layer", "F.Cu", "F.Cu or B.Cu")

	boardMoveCmd.Flags().Float64Var(&moveRotation, "rotation", 0, "new rotation in degrees (default: keep)")

	boardRouteCmd.Flags().StringVar(&routeFrom, "from", "", "start pad or x,y")
	boardRouteCmd.Flags().StringVar(&routeTo, "to", "", "end pad or x,y")
	boardRouteCmd.Flags().StringVar(&routeLayer, "layer", "F.Cu", "copper layer")
	boardRouteCmd.Flags().Float64Var(&routeWidth, "width", 0.25, "track width in mm")
	boardRouteCmd.Flags().StringVar(&routeNet, "net", "", "net name")
	for _, name := range []string{"from", "to", "net"} {
		_ = boardRouteCmd.MarkFlagRequired(name)
	}
}

// withBridge runs one bridge call and prints its result.
func withBridge(cmd *cobra.Command, call func(*bridge.Bridge) *protocol.Result) error {
	b, err := newBridge(nil)
	if err != nil {
		return err
	}
	return printResult(cmd, call(b))
}

func position(x, y float64) (json.RawMessage, error) {
	u, err := units.ParseUnit(placeUnit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(units.Position{X: x, Y: y, Unit: u})
}

func runBoardPlace(cmd *cobra.Command, args []string) error {
	library, name := pcb.SplitLibID(args[1])
	if library == "" {
		return fmt.Errorf("footprint must be written as library:name, got %q", args[1])
	}
	pos, err := position(placeX, placeY)
	if err != nil {
		return err
	}
	return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
		return b.PlaceComponent(cmd.Context(), protocol.PlaceParams{
			ProjectPath: args[0],
			ComponentID: name,
			Library:     library,
			Position:    pos,
			Reference:   placeRef,
			Value:       placeValue,
			Rotation:    placeRotation,
			Layer:       placeLayer,
			OutputPath:  outputPath,
		})
	})
}

func runBoardMove(cmd *cobra.Command, args []string) error {
	pos, err := position(placeX, placeY)
	if err != nil {
		return err
	}
	p := protocol.MoveParams{
		ProjectPath: args[0],
		Reference:   args[1],
		Position:    pos,
		OutputPath:  outputPath,
	}
	if cmd.Flags().Changed("rotation") {
		p.Rotation = &moveRotation
	}
	return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
		return b.MoveComponent(cmd.Context(), p)
	})
}

// endpoint turns "R1.2" into a pad reference and "x,y" into a position.
func endpoint(s string) (json.RawMessage, error) {
	if xs, ys, ok := strings.Cut(s, ","); ok {
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX == nil && errY == nil {
			return position(x, y)
		}
	}
	return json.Marshal(map[string]string{"pad": s})
}

func runBoardRoute(cmd *cobra.Command, args []string) error {
	start, err := endpoint(routeFrom)
	if err != nil {
		return err
	}
	end, err := endpoint(routeTo)
	if err != nil {
		return err
	}
	return withBridge(cmd, func(b *bridge.Bridge) *protocol.Result {
		return b.TrackRoutes(cmd.Context(), protocol.RoutesParams{
			ProjectPath: args[0],
			Routes: []board.RouteRequest{{
				Start: start,
				End:   end,
				Layer: routeLayer,
				Width: routeWidth,
				Net:   routeNet,
			}},
			OutputPath: outputPath,
		})
	})
}

func runBoardInfo(cmd *cobra.Command, args []string) error {
	b, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}
	printBoardInfo(cmd.OutOrStdout(), b)
	return nil
}

func printBoardInfo(w io.Writer, b *pcb.Board) {
	fmt.Fprintf(w, "Board: %s\n", b.Path)
	fmt.Fprintf(w, "  Version: %d\n", b.Version)
	fmt.Fprintf(w, "  Generator: %s\n", b.Generator)
	fmt.Fprintf(w, "  Layers: %d (%d copper)\n", len(b.Layers), b.CopperLayerCount())
	fmt.Fprintf(w, "  Nets: %d\n", len(b.Nets))
	fmt.Fprintf(w, "  Footprints: %d\n", len(b.Footprints))
	fmt.Fprintf(w, "  Tracks: %d\n", len(b.Tracks))
	fmt.Fprintf(w, "  Vias: %d\n", len(b.Vias))
	fmt.Fprintf(w, "  Zones: %d\n", len(b.Zones))
	if bbox := b.EdgeBoundingBox(); !bbox.IsEmpty() {
		fmt.Fprintf(w, "  Size: %.2f x %.2f mm\n", units.ToMM(bbox.Width()), units.ToMM(bbox.Height()))
	}
	for _, warning := range b.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
}

func runBoardNets(cmd *cobra.Command, args []string) error {
	b, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(args) >= 2 {
		return showNetDetails(out, b, args[1])
	}
	listAllNets(out, b)
	return nil
}

func listAllNets(w io.Writer, b *pcb.Board) {
	fmt.Fprintf(w, "Board: %d nets\n\n", len(b.Nets))
	fmt.Fprintf(w, "%-30s %6s %6s %6s\n", "Net Name", "Pads", "Tracks", "Vias")
	fmt.Fprintln(w, strings.Repeat("-", 51))

	netNames := b.GetAllNetNames()
	sort.Strings(netNames)

	for _, netName := range netNames {
		info := b.GetNetInfo(netName)
		if info != nil {
			fmt.Fprintf(w, "%-30s %6d %6d %6d\n",
				netName,
				len(info.Pads),
				len(info.Tracks),
				len(info.Vias))
		}
	}
}

func showNetDetails(w io.Writer, b *pcb.Board, netName string) error {
	info := b.GetNetInfo(netName)
	if info == nil {
		return fmt.Errorf("net '%s' not found", netName)
	}

	fmt.Fprintf(w, "Net: %s (number %d)\n\n", info.Net.Name, info.Net.Number)

	pads := b.PadsByNet()[info.Net.Number]
	fmt.Fprintf(w, "Pads (%d):\n", len(pads))
	for _, ref := range pads {
		pos := ref.Footprint.PadPosition(ref.Pad)
		fmt.Fprintf(w, "  %-8s: %s %.2fx%.2f mm at (%.2f, %.2f)\n",
			ref.String(), ref.Pad.Shape,
			units.ToMM(ref.Pad.Size.Width), units.ToMM(ref.Pad.Size.Height),
			units.ToMM(pos.X), units.ToMM(pos.Y))
	}

	fmt.Fprintf(w, "\nTracks (%d):\n", len(info.Tracks))
	for i, track := range info.Tracks {
		fmt.Fprintf(w, "  Track %d: %.2f mm wide on %s from (%.2f, %.2f) to (%.2f, %.2f)\n",
			i+1, units.ToMM(track.Width), track.Layer,
			units.ToMM(track.Start.X), units.ToMM(track.Start.Y),
			units.ToMM(track.End.X), units.ToMM(track.End.Y))
	}

	fmt.Fprintf(w, "\nVias (%d):\n", len(info.Vias))
	for i, via := range info.Vias {
		fmt.Fprintf(w, "  Via %d: %.2f mm diameter, %.2f mm drill at (%.2f, %.2f)\n",
			i+1, units.ToMM(via.Size), units.ToMM(via.Drill),
			units.ToMM(via.Position.X), units.ToMM(via.Position.Y))
	}
	return nil
}
