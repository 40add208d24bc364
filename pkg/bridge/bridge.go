// Package bridge runs board operations in a separate worker process and
// turns whatever the process does into a protocol.Result.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

// DefaultTimeout bounds one worker invocation.
const DefaultTimeout = 60 * time.Second

// waitDelay is how long Run waits for the output pipes after the worker
// has been killed.
const waitDelay = 2 * time.Second

// Recorder receives one observation per invocation.
type Recorder interface {
	ObserveInvocation(method string, outcome protocol.Outcome, d time.Duration)
}

type options struct {
	worker          string
	extraCandidates []string
	installDirs     []string
	timeout         time.Duration
	projectRoot     string
	configFile      string
	logFile         string
	log             logrus.FieldLogger
	metrics         Recorder
}

// Option configures a Bridge.
type Option func(*options)

// WithWorker pins the worker executable. New fails if it is not usable.
func WithWorker(path string) Option {
	return func(o *options) {
		o.worker = path
	}
}

// WithCandidates adds worker locations to probe after $KICADBRIDGE_WORKER.
func WithCandidates(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if p != "" {
				o.extraCandidates = append(o.extraCandidates, p)
			}
		}
	}
}

// WithTimeout sets the per-invocation deadline. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithProjectRoot makes the worker resolve relative paths against dir.
func WithProjectRoot(dir string) Option {
	return func(o *options) {
		o.projectRoot = dir
	}
}

// WithConfigFile passes a config file to the worker.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithLogFile makes the worker append its log to path.
func WithLogFile(path string) Option {
	return func(o *options) {
		o.logFile = path
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics records every invocation in r.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// Bridge invokes the worker. It is safe for concurrent use; every call
// spawns its own process.
type Bridge struct {
	worker string
	opts   options
}

// New locates the worker. It is the only place the bridge returns a Go
// error: without a worker nothing else can run.
func New(opts ...Option) (*Bridge, error) {
	o := options{
		timeout:     DefaultTimeout,
		installDirs: defaultInstallDirs(),
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	worker, err := locate(&o, o.log)
	if err != nil {
		return nil, err
	}
	return &Bridge{worker: worker, opts: o}, nil
}

// Worker returns the path of the worker executable.
func (b *Bridge) Worker() string {
	return b.worker
}

// Timeout returns the per-invocation deadline.
func (b *Bridge) Timeout() time.Duration {
	return b.opts.timeout
}

func (b *Bridge) args(method string, params []byte) []string {
	args := []string{"worker", "--protocol", strconv.Itoa(protocol.Version)}
	if b.opts.projectRoot != "" {
		args = append(args, "--project-root", b.opts.projectRoot)
	}
	if b.opts.configFile != "" {
		args = append(args, "--config", b.opts.configFile)
	}
	if b.opts.logFile != "" {
		args = append(args, "--log-file", b.opts.logFile)
	}
	return append(args, method, string(params))
}

// Invoke runs method in a fresh worker. It never returns nil: spawn
// failures, timeouts, crashes and unreadable output all come back as
// failed results of the matching kind.
func (b *Bridge) Invoke(ctx context.Context, method string, params any) *protocol.Result {
	data, err := json.Marshal(params)
	if err != nil {
		return protocol.Failuref(kicaderr.KindInvalidInput, "failed to encode parameters: %v", err)
	}

	start := time.Now()
	res, outcome := b.run(ctx, method, data)
	elapsed := time.Since(start)

	if b.opts.metrics != nil {
		b.opts.metrics.ObserveInvocation(method, outcome, elapsed)
	}
	b.opts.log.WithFields(logrus.Fields{
		"method":   method,
		"outcome":  outcome,
		"duration": elapsed,
		"success":  res.Success,
	}).Debug("Worker finished")
	return res
}

func (b *Bridge) run(ctx context.Context, method string, params []byte) (*protocol.Result, protocol.Outcome) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	// Stdin stays nil, which reads from the null device.
	cmd := exec.CommandContext(ctx, b.worker, b.args(method, params)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log := b.opts.log.WithField("method", method)
	log.Debugf("Executing %s", shellescape.QuoteCommand(cmd.Args))

	err := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res := protocol.Failuref(kicaderr.KindTimeout, "Command timeout after %d seconds", int(b.opts.timeout.Round(time.Second)/time.Second))
		res.Stdout, res.Stderr = stdout.String(), stderr.String()
		log.Warn(res.Error)
		return res, protocol.OutcomeTimedOut
	case ctx.Err() != nil:
		res := protocol.Failuref(kicaderr.KindTimeout, "Command canceled: %v", ctx.Err())
		res.Stdout, res.Stderr = stdout.String(), stderr.String()
		return res, protocol.OutcomeTimedOut
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res := protocol.Failuref(kicaderr.KindSubprocessFailed, "Subprocess failed with return code %d", exitErr.ExitCode())
			res.Stdout, res.Stderr = stdout.String(), stderr.String()
			log.WithField("stderr", strings.TrimSpace(stderr.String())).Warn(res.Error)
			return res, protocol.OutcomeNonZeroExit
		}
		res := protocol.Failuref(kicaderr.KindSubprocessFailed, "Failed to start worker %s: %v", b.worker, err)
		log.Warn(res.Error)
		return res, protocol.OutcomeSpawnFailed
	}

	var res protocol.Result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &res); err != nil {
		failed := protocol.Failuref(kicaderr.KindParseFailed, "Failed to parse subprocess output: %v", err)
		failed.Stdout, failed.Stderr = stdout.String(), stderr.String()
		log.Warn(failed.Error)
		return failed, protocol.OutcomeParseFailed
	}
	return &res, protocol.OutcomeParsed
}
