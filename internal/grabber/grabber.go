// Package grabber runs every word of a word list through every configured
// engine and appends the records to each engine's output.
package grabber

import (
	"context"
	"fmt"
	"freqgrabber/internal/assert"
	"freqgrabber/internal/engine"
	"freqgrabber/internal/telemetry"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_run    = "run"
	report_output = "output"
	report_words  = "run-words"
	report_failed = "run-failed"
)

var tracer = otel.Tracer("freqgrabber/grabber")

type Sink interface {
	Append(record engine.Record) error
	Destination() string
}

// Target pairs an engine with the sink its records go to.
type Target struct {
	Engine engine.Engine
	Sink   Sink
}

type Options struct {
	// Debug prints which engine is being queried and the debug info of failures.
	Debug bool
	// ContinueOnError skips a failed (word, engine) pair instead of stopping the run.
	ContinueOnError bool
	// Out receives the operator output, defaults to stdout.
	Out io.Writer
}

type OutputSummary struct {
	Engine      string
	Destination string
	Records     int
}

type Summary struct {
	// Words is the number of words every engine was asked about.
	Words   int
	Queried int
	Failed  int
	Outputs []OutputSummary
}

type Grabber struct {
	targets []Target
	opts    Options
	tel     telemetry.API
}

func New(targets []Target, opts Options, tel telemetry.API) *Grabber {
	assert.NotEmpty(targets)
	assert.NotNil(tel)
	for _, t := range targets {
		assert.NotNil(t.Engine)
		assert.NotNil(t.Sink)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Grabber{
		targets: targets,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("grabber", tel),
	}
}

// Run queries words in order. Within a word, engines are queried in the
// order they were given and a record is appended before the next query starts.
//
// Unless ContinueOnError is set, the first failure stops the run and is returned.
func (g *Grabber) Run(ctx context.Context, words []string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "grabber:Run", trace.WithAttributes(
		attribute.Int("words", len(words)),
		attribute.Int("engines", len(g.targets)),
	))
	defer span.End()

	summary := Summary{Outputs: make([]OutputSummary, len(g.targets))}
	for i, t := range g.targets {
		summary.Outputs[i] = OutputSummary{
			Engine:      t.Engine.Name(),
			Destination: t.Sink.Destination(),
		}
	}

	err := g.run(ctx, words, &summary)

	g.tel.ReportCount(report_words, int64(summary.Words))
	g.tel.ReportCount(report_failed, int64(summary.Failed))
	span.SetAttributes(
		attribute.Int("queried", summary.Queried),
		attribute.Int("failed", summary.Failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

func (g *Grabber) run(ctx context.Context, words []string, summary *Summary) error {
	for i, word := range words {
		for ti, t := range g.targets {
			err := ctx.Err()
			if err != nil {
				return fmt.Errorf("run interrupted: %w", err)
			}

			name := t.Engine.Name()
			if g.opts.Debug {
				fmt.Fprintf(g.opts.Out, "Querying %s..\n", name)
			}

			record, err := t.Engine.Query(ctx, word)
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("run interrupted: %w", ctx.Err())
				}
				summary.Failed++
				g.reportFailure(err)
				if !g.opts.ContinueOnError {
					return fmt.Errorf("query %s for %q: %w", name, word, err)
				}
				g.tel.ReportWarning(report_run, err, name, word)
				continue
			}
			summary.Queried++

			err = t.Sink.Append(record)
			if err != nil {
				g.tel.ReportBroken(report_output, err, t.Sink.Destination())
				fmt.Fprintf(g.opts.Out, "Error: couldn't write to output file: %s\n", t.Sink.Destination())
				return fmt.Errorf("append %q to %s: %w", word, t.Sink.Destination(), err)
			}
			summary.Outputs[ti].Records++
		}

		summary.Words++
		fmt.Fprintf(
			g.opts.Out,
			"Getting data.. %d/%d (%d%%)\n",
			i+1, len(words), (i+1)*100/len(words),
		)
	}
	return nil
}

func (g *Grabber) reportFailure(err error) {
	message := err.Error()
	fmt.Fprintf(g.opts.Out, "Error: %s\n", message)
	if g.opts.Debug {
		fmt.Fprintf(g.opts.Out, "=== DEBUG Info ===\n%s\n==================\n", engine.DebugInfo(err))
	}
}
