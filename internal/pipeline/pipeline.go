// Package pipeline runs extractors one after another, each inside a fault
// boundary, and tracks their lifecycle.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/source"
)

// Extractor is one data source. Tags lists the tables it produces, in order.
type Extractor interface {
	Name() string
	Tags() []string
	Extract(ctx context.Context) []source.Result
}

// Guard invokes e and converts every failure into a terminal outcome for e
// alone. A panic becomes an UnexpectedFailure on each of its tables. Tables
// the extractor did not report are added as failed so the outcome always
// lists every table in Tags order.
func Guard(ctx context.Context, e Extractor) (out source.Outcome) {
	out = source.Outcome{Source: e.Name(), State: source.StateRunning, Started: time.Now()}
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%w: panic in %s extractor: %v", source.ErrUnexpected, e.Name(), rec)
			log.Error().Err(err).Str("source", e.Name()).Str("stack", string(debug.Stack())).Msg("extractor panicked")
			out.Results = failAll(e.Tags(), err)
		}
		out.Duration = time.Since(out.Started)
		out.State = source.StateFor(out.Results)
	}()

	out.Results = complete(e.Tags(), e.Extract(ctx))
	return out
}

// complete orders results by tags and fills any missing table with a failed
// result. Results for tags outside the list are kept at the end.
func complete(tags []string, results []source.Result) []source.Result {
	if len(tags) == 0 {
		return results
	}
	byTag := make(map[string]source.Result, len(results))
	var extra []source.Result
	known := make(map[string]bool, len(tags))
	for _, t := range tags {
		known[t] = true
	}
	for _, r := range results {
		if known[r.Tag] {
			byTag[r.Tag] = r
		} else {
			extra = append(extra, r)
		}
	}
	out := make([]source.Result, 0, len(tags)+len(extra))
	for _, t := range tags {
		r, ok := byTag[t]
		if !ok {
			r = source.Failed(t, fmt.Errorf("%w: no result reported for %s", source.ErrUnexpected, t))
		}
		out = append(out, r)
	}
	return append(out, extra...)
}

func failAll(tags []string, err error) []source.Result {
	out := make([]source.Result, 0, len(tags))
	for _, t := range tags {
		out = append(out, source.Failed(t, err))
	}
	return out
}

// Run executes the extractors in order. The returned slice has one outcome
// per extractor regardless of failures.
func Run(ctx context.Context, extractors []Extractor) []source.Outcome {
	outcomes := make([]source.Outcome, len(extractors))
	for i, e := range extractors {
		outcomes[i] = source.Outcome{Source: e.Name(), State: source.StateNotStarted}
	}
	for i, e := range extractors {
		log.Info().Str("source", e.Name()).Str("state", string(source.StateRunning)).Msg("extractor started")
		outcomes[i] = Guard(ctx, e)
		o := outcomes[i]
		log.WithLevel(levelFor(o.State)).
			Str("source", o.Source).
			Str("state", string(o.State)).
			Int("rows", o.Rows()).
			Dur("duration", o.Duration).
			Msg("extractor finished")
	}
	return outcomes
}

// AllFailed reports whether no outcome produced data. Outcomes that never
// reached an end state count as failed, and so does an empty run.
func AllFailed(outcomes []source.Outcome) bool {
	for _, o := range outcomes {
		if o.State.Terminal() && o.State != source.StateFailed {
			return false
		}
	}
	return true
}

// ExitCode is 2 when every source failed and 0 otherwise.
func ExitCode(outcomes []source.Outcome) int {
	if AllFailed(outcomes) {
		return 2
	}
	return 0
}

func levelFor(s source.State) zerolog.Level {
	switch s {
	case source.StateFailed:
		return zerolog.ErrorLevel
	case source.StatePartial:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
