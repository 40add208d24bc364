package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libcheck"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/project"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check symbol, footprint and project files",
	Long: `Checks files for the structure KiCad needs to load them. The exit status
is non-zero when the check fails.`,
}

var validateSymbolCmd = &cobra.Command{
	Use:   "symbol <file.kicad_sym>",
	Short: "Check a symbol library or symbol fragment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		report := libcheck.ValidateSymbol(string(text))
		return printReport(cmd, report, report.Success)
	},
}

var validateFootprintCmd = &cobra.Command{
	Use:   "footprint <file.kicad_mod>",
	Short: "Check a footprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		report := libcheck.ValidateFootprint(string(text))
		return printReport(cmd, report, report.Success)
	},
}

var validateProjectCmd = &cobra.Command{
	Use:   "project <file.kicad_pro>",
	Short: "Check that a project and its board and schematic exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := project.Validate(args[0])
		return printReport(cmd, v, v.Valid)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateSymbolCmd, validateFootprintCmd, validateProjectCmd)
}

func printReport(cmd *cobra.Command, report any, ok bool) error {
	j, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(j)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("validation failed")
	}
	return nil
}
