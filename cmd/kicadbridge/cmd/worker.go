package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
	"github.com/OpenTraceLab/kicadbridge/pkg/worker"
)

var (
	workerProtocol    int
	workerProjectRoot string
)

var workerCmd = &cobra.Command{
	Use:   "worker <method> <params_json>",
	Short: "Run one board operation and print the result",
	Long: `Runs a single board operation and prints exactly one JSON result on stdout.

This is the process the bridge spawns for every call. Failures are reported
inside the result; the exit status is 0 whenever a result was printed.

Methods:
  ` + strings.Join(worker.Methods(), "\n  "),
	Args:   cobra.ExactArgs(2),
	Hidden: true,
	RunE:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntVar(&workerProtocol, "protocol", protocol.Version, "bridge protocol version")
	workerCmd.Flags().StringVar(&workerProjectRoot, "project-root", "", "directory relative project paths are resolved against")
}

func runWorker(cmd *cobra.Command, args []string) error {
	res := workerResult(args[0], json.RawMessage(args[1]))
	out, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func workerResult(method string, params json.RawMessage) *protocol.Result {
	if workerProtocol != protocol.Version {
		return protocol.Failuref(kicaderr.KindInvalidInput,
			"unsupported protocol version %d (worker speaks %d)", workerProtocol, protocol.Version)
	}
	if workerProjectRoot != "" {
		if err := os.Chdir(workerProjectRoot); err != nil {
			return protocol.Failuref(kicaderr.KindNotFound, "invalid project root: %v", err)
		}
	}
	if !json.Valid(params) {
		return protocol.Failuref(kicaderr.KindInvalidInput, "Invalid JSON params")
	}

	log := logrus.StandardLogger()
	resolver, err := newResolver()
	if err != nil {
		log.WithError(err).Warn("Footprint libraries unavailable")
	}
	opts := []worker.Option{worker.WithLogger(log)}
	if resolver != nil {
		opts = append(opts, worker.WithLibrary(resolver))
	}
	return worker.New(opts...).Dispatch(method, params)
}
