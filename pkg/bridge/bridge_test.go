package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

// envFake turns the test binary into a fake worker.
const envFake = "KICADBRIDGE_TEST_FAKE_WORKER"

func TestMain(m *testing.M) {
	if mode := os.Getenv(envFake); mode != "" {
		os.Exit(fakeWorker(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

func fakeWorker(mode string, args []string) int {
	switch mode {
	case "echo":
		method := ""
		if len(args) >= 2 {
			method = args[len(args)-2]
		}
		data, _ := json.Marshal(protocol.OK("echo").With("method", method).With("args", args))
		fmt.Println(string(data))
	case "failure":
		data, _ := json.Marshal(protocol.Failuref(kicaderr.KindNetNotFound, `net "X" not found`))
		fmt.Println(string(data))
	case "sleep":
		time.Sleep(30 * time.Second)
	case "crash":
		fmt.Print("partial")
		fmt.Fprint(os.Stderr, "boom")
		return 3
	case "garbage":
		fmt.Print("Traceback: this is not json")
	}
	return 0
}

type recorder struct {
	mu       sync.Mutex
	outcomes []protocol.Outcome
}

func (r *recorder) ObserveInvocation(_ string, outcome protocol.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func self(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	assert.NilError(t, err)
	return exe
}

func newBridge(t *testing.T, mode string, opts ...Option) (*Bridge, *recorder) {
	t.Helper()
	t.Setenv(envFake, mode)
	rec := &recorder{}
	opts = append([]Option{WithWorker(self(t)), WithLogger(quietLogger()), WithMetrics(rec)}, opts...)
	b, err := New(opts...)
	assert.NilError(t, err)
	return b, rec
}

func TestInvokeParsesEnvelope(t *testing.T) {
	root := t.TempDir()
	b, rec := newBridge(t, "echo", WithProjectRoot(root))

	res := b.LoadBoard(context.Background(), "demo.kicad_pro")
	assert.Assert(t, res.Success, res.Error)

	method, err := protocol.Decode[string](res, "method")
	assert.NilError(t, err)
	assert.Equal(t, method, protocol.MethodLoadBoard)

	args, err := protocol.Decode[[]string](res, "args")
	assert.NilError(t, err)
	assert.DeepEqual(t, args, []string{
		"worker", "--protocol", "1",
		"--project-root", root,
		"load_board", `{"project_path":"demo.kicad_pro"}`,
	})
	assert.DeepEqual(t, rec.outcomes, []protocol.Outcome{protocol.OutcomeParsed})
}

func TestInvokeKeepsWorkerFailure(t *testing.T) {
	b, rec := newBridge(t, "failure")
	res := b.TrackRoutes(context.Background(), protocol.RoutesParams{ProjectPath: "p.kicad_pro"})
	assert.Assert(t, !res.Success)
	assert.Equal(t, res.Kind, kicaderr.KindNetNotFound)
	assert.Equal(t, res.Error, `net "X" not found`)
	assert.DeepEqual(t, rec.outcomes, []protocol.Outcome{protocol.OutcomeParsed})
}

func TestInvokeTimeout(t *testing.T) {
	b, rec := newBridge(t, "sleep", WithTimeout(300*time.Millisecond))

	start := time.Now()
	res := b.ExtractZones(context.Background(), "p.kicad_pro")
	assert.Assert(t, time.Since(start) < 10*time.Second)
	assert.Assert(t, !res.Success)
	assert.Equal(t, res.Kind, kicaderr.KindTimeout)
	assert.Assert(t, is.Contains(res.Error, "Command timeout after"))
	assert.DeepEqual(t, rec.outcomes, []protocol.Outcome{protocol.OutcomeTimedOut})
}

func TestInvokeDefaultTimeoutMessage(t *testing.T) {
	b, _ := newBridge(t, "echo")
	assert.Equal(t, b.Timeout(), DefaultTimeout)

	res := protocol.Failuref(kicaderr.KindTimeout, "Command timeout after %d seconds", int(b.Timeout()/time.Second))
	assert.Equal(t, res.Error, "Command timeout after 60 seconds")
}

func TestInvokeNonZeroExit(t *testing.T) {
	b, rec := newBridge(t, "crash")
	res := b.GetNets(context.Background(), "p.kicad_pro")
	assert.Assert(t, !res.Success)
	assert.Equal(t, res.Kind, kicaderr.KindSubprocessFailed)
	assert.Equal(t, res.Error, "Subprocess failed with return code 3")
	assert.Equal(t, res.Stdout, "partial")
	assert.Equal(t, res.Stderr, "boom")
	assert.DeepEqual(t, rec.outcomes, []protocol.Outcome{protocol.OutcomeNonZeroExit})
}

func TestInvokeGarbageOutput(t *testing.T) {
	b, rec := newBridge(t, "garbage")
	res := b.SaveBoard(context.Background(), "p.kicad_pro", "")
	assert.Assert(t, !res.Success)
	assert.Equal(t, res.Kind, kicaderr.KindParseFailed)
	assert.Assert(t, strings.HasPrefix(res.Error, "Failed to parse subprocess output: "))
	assert.Equal(t, res.Stdout, "Traceback: this is not json")
	assert.DeepEqual(t, rec.outcomes, []protocol.Outcome{protocol.OutcomeParseFailed})
}

func TestInvokeUnencodableParams(t *testing.T) {
	b, rec := newBridge(t, "echo")
	res := b.Invoke(context.Background(), protocol.MethodLoadBoard, make(chan int))
	assert.Equal(t, res.Kind, kicaderr.KindInvalidInput)
	assert.Assert(t, is.Len(rec.outcomes, 0))
}

func TestInvokeCanceled(t *testing.T) {
	b, _ := newBridge(t, "sleep")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	res := b.ExtractLayers(ctx, "p.kicad_pro")
	assert.Equal(t, res.Kind, kicaderr.KindTimeout)
	assert.Assert(t, is.Contains(res.Error, "canceled"))
}

func TestConcurrentInvocations(t *testing.T) {
	b, rec := newBridge(t, "echo")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := b.ExtractBasicInfo(context.Background(), "p.kicad_pro")
			assert.Check(t, res.Success, res.Error)
		}()
	}
	wg.Wait()
	assert.Assert(t, is.Len(rec.outcomes, 4))
}

func writeExecutable(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
	return path
}

// isolate clears every implicit worker location.
func isolate(t *testing.T) Option {
	t.Helper()
	t.Setenv(EnvWorker, "")
	t.Setenv("PATH", t.TempDir())
	return func(o *options) {
		o.installDirs = nil
	}
}

func TestNewExplicitWorkerMustExist(t *testing.T) {
	_, err := New(WithWorker(filepath.Join(t.TempDir(), "missing")), WithLogger(quietLogger()))
	assert.ErrorContains(t, err, "configured worker is not usable")
}

func TestNewProbesCandidates(t *testing.T) {
	opt := isolate(t)
	dir := t.TempDir()
	notExec := writeExecutable(t, dir, "plain", 0o644)
	exe := writeExecutable(t, dir, "worker", 0o755)

	b, err := New(opt, WithCandidates(notExec, exe), WithLogger(quietLogger()))
	assert.NilError(t, err)
	assert.Equal(t, b.Worker(), exe)
}

func TestNewPrefersEnvironment(t *testing.T) {
	opt := isolate(t)
	dir := t.TempDir()
	fromEnv := writeExecutable(t, dir, "env-worker", 0o755)
	fromConfig := writeExecutable(t, dir, "config-worker", 0o755)
	t.Setenv(EnvWorker, fromEnv)

	b, err := New(opt, WithCandidates(fromConfig), WithLogger(quietLogger()))
	assert.NilError(t, err)
	assert.Equal(t, b.Worker(), fromEnv)
}

func TestNewSearchesPath(t *testing.T) {
	opt := isolate(t)
	dir := t.TempDir()
	exe := writeExecutable(t, dir, exeName(), 0o755)
	t.Setenv("PATH", dir)

	b, err := New(opt, WithLogger(quietLogger()))
	assert.NilError(t, err)
	assert.Equal(t, b.Worker(), exe)
}

func TestNewInstallDirs(t *testing.T) {
	opt := isolate(t)
	dir := t.TempDir()
	exe := writeExecutable(t, dir, exeName(), 0o755)

	b, err := New(opt, func(o *options) { o.installDirs = []string{t.TempDir(), dir} }, WithLogger(quietLogger()))
	assert.NilError(t, err)
	assert.Equal(t, b.Worker(), exe)
}

func TestNewNoWorker(t *testing.T) {
	opt := isolate(t)
	_, err := New(opt, WithCandidates(filepath.Join(t.TempDir(), "nope")), WithLogger(quietLogger()))
	assert.ErrorContains(t, err, "no usable kicadbridge worker found")
}
