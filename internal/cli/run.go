package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/aretw0/conveyor"
	httpadapter "github.com/aretw0/conveyor/pkg/adapters/http"
	"github.com/aretw0/conveyor/pkg/observability"
)

// Env carries the IO and logging context for a CLI run, so tests can
// substitute buffers for the real terminal.
type Env struct {
	Out    io.Writer
	Logger *slog.Logger
}

// RunOptions configures RunPipeline.
type RunOptions struct {
	// StatusAddr, when set, serves /healthz, /status and /metrics for
	// the duration of the run.
	StatusAddr string
	// Timeout bounds the whole run. Zero means no bound.
	Timeout time.Duration
}

// RunPipeline loads a pipeline file, drives a conveyor through it and
// waits for settlement.
func RunPipeline(path string, env *Env, opts RunOptions) error {
	p, err := LoadPipeline(path)
	if err != nil {
		return err
	}
	actions, err := p.Actions(env)
	if err != nil {
		return err
	}

	cfg, err := conveyor.DecodeConfig(p.Config)
	if err != nil {
		return err
	}

	failures := &errCollector{}
	cvOpts := append(cfg.Options(),
		conveyor.WithLogger(env.Logger),
		conveyor.WithErrorHandler(func(err error) {
			failures.add(err)
			env.Logger.Error("action failed", "err", err)
		}),
	)

	var srv *http.Server
	if opts.StatusAddr != "" {
		reg := prometheus.NewRegistry()
		collector := observability.NewCollector(reg)
		cvOpts = append(cvOpts, conveyor.WithLifecycleHooks(collector.Hooks()))

		c := conveyor.New(cvOpts...)
		defer c.Close()

		srv = &http.Server{Addr: opts.StatusAddr, Handler: httpadapter.NewHandler(c, reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				env.Logger.Error("status server failed", "err", err)
			}
		}()
		defer srv.Close()

		return drive(c, actions, env, opts, failures)
	}

	c := conveyor.New(cvOpts...)
	defer c.Close()
	return drive(c, actions, env, opts, failures)
}

// errCollector accumulates handled failures across goroutines.
type errCollector struct {
	mu   sync.Mutex
	errs []error
}

func (ec *errCollector) add(err error) {
	ec.mu.Lock()
	ec.errs = append(ec.errs, err)
	ec.mu.Unlock()
}

func (ec *errCollector) count() int {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errs)
}

func drive(c *conveyor.Conveyor, actions []conveyor.Action, env *Env, opts RunOptions, failures *errCollector) error {
	if err := c.DoAll(actions).Err(); err != nil {
		return err
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if _, err := c.Await(ctx); err != nil {
		return fmt.Errorf("pipeline did not settle: %w", err)
	}

	if n := failures.count(); n > 0 {
		fmt.Fprintln(env.Out, paint(fmt.Sprintf("pipeline finished with %d failed action(s)", n), "#fb7185"))
		return fmt.Errorf("%d action(s) failed", n)
	}
	fmt.Fprintln(env.Out, paint("pipeline complete", "#818cf8"))
	return nil
}

// paint colors s when stdout is an interactive terminal.
func paint(s, hex string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color(hex)).String()
}
