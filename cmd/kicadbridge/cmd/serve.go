package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/internal/metrics"
	"github.com/OpenTraceLab/kicadbridge/pkg/mcp/toolset"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
	"github.com/OpenTraceLab/kicadbridge/pkg/worker"
)

var serveMetricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Long: `Serve MCP over stdio.

Board tools run in a separate worker process per call; library and
validation tools run in this process.

Expected to be executed via an AI agent, not by a human`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show the MCP tools and their input schemas",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

var genDocCmd = &cobra.Command{
	Use:    "generate-doc DIR",
	Short:  "Generate the MCP tool reference",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE:   runGenDoc,
}

func init() {
	rootCmd.AddCommand(serveCmd, toolsCmd, genDocCmd)
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
}

func newServer() *mcp.Server {
	impl := &mcp.Implementation{
		Name:    "kicadbridge",
		Title:   "KiCad board and library automation",
		Version: rootCmd.Version,
	}
	serverOpts := &mcp.ServerOptions{
		Instructions: `This MCP server edits and inspects KiCad projects.

Board tools take the path of a .kicad_pro project (or its .kicad_pcb) and
save the board after every change. Positions are objects with x, y and
unit ("mm" or "inch"). Pads are written as "<reference>.<number>", e.g. "R1.2".
`,
	}
	return mcp.NewServer(impl, serverOpts)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	m := metrics.New()
	b, err := newBridge(m)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"worker":  b.Worker(),
		"timeout": b.Timeout(),
	}).Info("Using worker")

	ts, err := toolset.New(b,
		toolset.WithStore(newStore()),
		toolset.WithLogger(logrus.StandardLogger()),
		toolset.WithMetrics(m))
	if err != nil {
		return err
	}
	server := newServer()
	if err = ts.RegisterServer(server); err != nil {
		return err
	}

	addr := cfg.Metrics.Addr
	if cmd.Flags().Changed("metrics-addr") {
		addr = serveMetricsAddr
	}
	if addr != "" {
		stop := serveMetrics(addr, m)
		defer stop()
	}

	transport := &mcp.StdioTransport{}
	return server.Run(ctx, transport)
}

// serveMetrics exposes /metrics until the returned function is called.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Metrics server failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to stop metrics server")
		}
	}
}

// localInvoker runs methods in this process. It backs the tool listing,
// which never needs a worker binary.
type localInvoker struct {
	w *worker.Worker
}

func (l localInvoker) Invoke(_ context.Context, method string, params any) *protocol.Result {
	raw, err := json.Marshal(params)
	if err != nil {
		return protocol.Failure(err)
	}
	return l.w.Dispatch(method, raw)
}

// Info describes the tools the server registers.
type Info struct {
	Tools []*mcp.Tool `json:"tools"`
}

func inspectInfo(ctx context.Context) (*Info, error) {
	ts, err := toolset.New(localInvoker{w: worker.New()}, toolset.WithStore(newStore()))
	if err != nil {
		return nil, err
	}
	server := newServer()
	if err = ts.RegisterServer(server); err != nil {
		return nil, err
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, err
	}
	toolsResult, err := clientSession.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	if err = clientSession.Close(); err != nil {
		return nil, err
	}
	if err = serverSession.Wait(); err != nil {
		return nil, err
	}
	return &Info{Tools: toolsResult.Tools}, nil
}

func runTools(cmd *cobra.Command, _ []string) error {
	info, err := inspectInfo(cmd.Context())
	if err != nil {
		return err
	}
	j, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(j))
	return err
}

func runGenDoc(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	info, err := inspectInfo(cmd.Context())
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "mcp.md"))
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprint(f, `---
title: MCP tools
---
kicadbridge serves these tools over stdio (`+"`kicadbridge serve`"+`).

`)
	for _, tool := range info.Tools {
		fmt.Fprintf(f, "## `%s`\n\n", tool.Name)
		if tool.Title != "" {
			fmt.Fprintf(f, "### Title\n\n%s\n\n", tool.Title)
		}
		if tool.Description != "" {
			fmt.Fprintf(f, "### Description\n\n%s\n\n", tool.Description)
		}
		if tool.InputSchema != nil {
			fmt.Fprint(f, "### Input Schema\n\n")
			schema, err := json.MarshalIndent(tool.InputSchema, "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintf(f, "```json\n%s\n```\n\n", string(schema))
		}
	}
	return f.Close()
}
