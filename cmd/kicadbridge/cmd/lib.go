package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
)

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "Footprint and symbol library operations",
	Long: `Commands for the configured library directories and the global
fp-lib-table / sym-lib-table.`,
}

var libListCmd = &cobra.Command{
	Use:   "list [table_file]",
	Short: "List the libraries of a library table",
	Long: `Lists the libraries of a library table. Without an argument the
configured footprint table is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLibList,
}

var libDescription string

var libAddCmd = &cobra.Command{
	Use:       "add <footprint|symbol> <lib_name> [lib_path]",
	Short:     "Register a library in the global table",
	Long:      `Registers a library. Without lib_path the library's location in the configured library directory is used.`,
	Args:      cobra.RangeArgs(2, 3),
	ValidArgs: []string{string(libtable.Footprint), string(libtable.Symbol)},
	RunE:      runLibAdd,
}

var libSaveFootprintCmd = &cobra.Command{
	Use:   "save-footprint <lib_name> <footprint_name> <file.kicad_mod>",
	Short: "Store a footprint in the footprint library directory",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		path, err := newStore().SaveFootprint(string(content), args[1], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Footprint saved: %s\n", path)
		return nil
	},
}

var libSaveSymbolCmd = &cobra.Command{
	Use:   "save-symbol <lib_name> <symbol_name> <file.kicad_sym>",
	Short: "Add a symbol to a library in the symbol library directory",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		path, err := newStore().SaveSymbol(string(content), args[1], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Symbol saved: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libCmd)
	libCmd.AddCommand(libListCmd, libAddCmd, libSaveFootprintCmd, libSaveSymbolCmd)
	libAddCmd.Flags().StringVar(&libDescription, "description", "", "library description")
}

func runLibList(cmd *cobra.Command, args []string) error {
	path := cfg.Libraries.FootprintTable
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no table given and no footprint table configured")
	}
	p, err := libtable.NewParser()
	if err != nil {
		return err
	}
	table, err := p.ParseFile(path)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tTYPE\tURI\tDESCRIPTION\n")
	for _, lib := range table.Libraries {
		name := lib.Name
		if lib.Disabled {
			name += " (disabled)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, lib.Type, lib.URI, lib.Descr)
	}
	return w.Flush()
}

func runLibAdd(cmd *cobra.Command, args []string) error {
	kind := libtable.Kind(args[0])
	if kind != libtable.Footprint && kind != libtable.Symbol {
		return fmt.Errorf("unknown library kind %q (want footprint or symbol)", args[0])
	}
	var uri string
	if len(args) == 3 {
		uri = args[2]
	}
	uri, err := newStore().Register(kind, args[1], uri, libDescription)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", uri, kind.FileName())
	return nil
}
