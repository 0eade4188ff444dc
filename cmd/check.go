package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/report"
	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

var (
	errEmptyURL    = errors.New("url is empty")
	errUnsafe      = errors.New("url judged unsafe")
	errInterrupted = errors.New("interrupted")
)

type checkOptions struct {
	format     string
	noColor    bool
	failUnsafe bool
}

func newCheckCommand(a *app) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Analyze a single URL",
		Example: `  urlguard check https://example.com
  urlguard check --format json --step-delay 0 http://bit.ly/abc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", report.FormatText, "output format (text, json, yaml)")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.BoolVar(&opts.failUnsafe, "fail-unsafe", false, "exit non-zero when the verdict is Unsafe")
	f.Duration("step-delay", 0, "simulated processing time per check (default from config)")
	f.Uint64("seed", 0, "random seed for reproducible runs, 0 seeds from the clock")
	_ = a.v.BindPFlag("analysis.step_delay", f.Lookup("step-delay"))
	_ = a.v.BindPFlag("analysis.seed", f.Lookup("seed"))
	return cmd
}

func (a *app) check(cmd *cobra.Command, rawURL string, opts *checkOptions) error {
	if err := report.ValidateFormat(opts.format); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	text := opts.format == "" || opts.format == report.FormatText
	useColor := text && !opts.noColor && !color.NoColor
	if text && !a.quiet() {
		printBanner(errOut)
	}

	guard, release, err := buildEngine(a.cfg.Analysis, a.cfg.GeoIP, a.logger)
	if err != nil {
		return err
	}
	defer release()

	w := widget.New(guard, widget.WithLogger(a.logger))
	defer w.Close()
	events, cancel := w.Subscribe()
	defer cancel()

	w.SetURL(rawURL)
	if !w.Request(widget.TriggerCheck) {
		return errEmptyURL
	}

	res, err := awaitResult(ctx, events, progressWriter(errOut, text))
	if err != nil {
		return err
	}
	if err := report.Write(out, opts.format, res, report.Options{Color: useColor}); err != nil {
		return err
	}
	if opts.failUnsafe && res.Status == models.StatusUnsafe {
		return fmt.Errorf("%w: score %d", errUnsafe, res.SafetyScore)
	}
	return nil
}

// progressWriter draws the bar on the terminal for text output only.
func progressWriter(w io.Writer, enabled bool) func(widget.Event) {
	if !enabled {
		return func(widget.Event) {}
	}
	return func(ev widget.Event) {
		report.WriteProgress(w, ev.Progress, ev.Check)
	}
}

// awaitResult consumes widget events until the result arrives.
func awaitResult(ctx context.Context, events <-chan widget.Event, onProgress func(widget.Event)) (*models.AnalysisResult, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, errInterrupted
		case ev, ok := <-events:
			if !ok {
				return nil, errInterrupted
			}
			switch ev.Type {
			case widget.EventProgressUpdated:
				onProgress(ev)
			case widget.EventResultReady:
				return ev.Result, nil
			}
		}
	}
}
