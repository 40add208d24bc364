package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [params_json]",
	Short: "Invoke a worker method through the bridge",
	Long: `Invokes one worker method the way the MCP server does and prints the
result envelope.

Examples:
  kicadbridge call load_board '{"project_path":"demo.kicad_pro"}'
  kicadbridge call get_net_pcb '{"project_path":"demo.kicad_pro"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	params := json.RawMessage("{}")
	if len(args) == 2 {
		params = json.RawMessage(args[1])
		if !json.Valid(params) {
			return fmt.Errorf("params are not valid JSON: %s", args[1])
		}
	}
	b, err := newBridge(nil)
	if err != nil {
		return err
	}
	return printResult(cmd, b.Invoke(cmd.Context(), args[0], params))
}

// printResult writes res as indented JSON and turns a failed result into
// the command's error.
func printResult(cmd *cobra.Command, res *protocol.Result) error {
	j, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(j)); err != nil {
		return err
	}
	return res.Err()
}
