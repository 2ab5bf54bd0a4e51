// Package tracking wraps workload functions so that their runs are recorded
// on a registry.
//
// Each wrapped invocation causes exactly two upserts: one when the function
// starts (status "running") and one terminal upsert (status "completed" or
// "failed"). The registry being down never stops the workload itself.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strings"
	"time"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
	"github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/mlopslab/mlreg/pkg/utils/pointer"
)

// Tracker records runs of wrapped functions on a registry.
type Tracker struct {
	client rest.Client
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Tracker)

// WithLogger sets the logger used for tracking warnings.
// Tracking never fails a workload; problems are only logged.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock replaces the clock. For testing.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(client rest.Client, opts ...Option) *Tracker {
	t := &Tracker{
		client: client,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// run is the active experiment carried by context.
//
// There is no process-global active experiment; concurrent Track calls each
// see their own run through the context they pass down.
type run struct {
	experimentId string
	tracker      *Tracker
}

type runKeyType struct{}

var runKey runKeyType

func runOf(ctx context.Context) (run, bool) {
	r, ok := ctx.Value(runKey).(run)
	return r, ok
}

// ExperimentIdOf returns the experiment id of the run active on ctx, if any.
//
// The id can be "offline" or "unknown" when the start of the run could not be
// recorded on the registry.
func ExperimentIdOf(ctx context.Context) (string, bool) {
	r, ok := runOf(ctx)
	return r.experimentId, ok
}

// Track runs fn as a tracked experiment.
//
// Args
//
// - ctx: base context. fn receives a child context carrying the run, so
// metrics logged inside fn (with LogMetric) are attributed to it.
//
// - name: experiment name. When empty, the runtime symbol name of fn is used.
//
// - params: parameters of the run, recorded once at start. Values are
// JSON-encoded; a value that cannot be encoded is dropped with a warning.
//
// - fn: the workload. Its return decides the terminal status: a nil error
// means "completed" (with the stringified result), a non-nil error means
// "failed". A panic is tracked as "failed" and re-panicked.
//
// Returns
//
// - any: the result of fn, unchanged.
//
// - error: the error of fn, unchanged. Tracking failures are logged, never
// returned in place of fn's own outcome.
func (t *Tracker) Track(
	ctx context.Context,
	name string,
	params map[string]any,
	fn func(ctx context.Context) (any, error),
) (result any, err error) {
	functionName, module := symbolOf(fn)
	if name == "" {
		name = functionName
	}

	encoded := t.encodeParams(name, params)
	startTime := t.now()
	startStamp := rfctime.New(startTime.UTC())

	resp, trackErr := t.client.Track(ctx, apiexp.TrackRequest{
		ExperimentName: name,
		FunctionName:   functionName,
		Module:         module,
		Status:         apiexp.StatusRunning,
		Parameters:     encoded,
		StartTime:      &startStamp,
	})

	experimentId := resp.ExperimentId
	if trackErr != nil {
		t.logger.Printf("failed to start tracking experiment %s: %s", name, trackErr)
	}
	if experimentId == "" {
		experimentId = "unknown"
	}
	if experimentId == "offline" {
		t.logger.Printf("registry is offline. experiment %s runs untracked", name)
	}

	ctx = context.WithValue(ctx, runKey, run{experimentId: experimentId, tracker: t})

	terminal := func(status string, result *string, errMessage *string) {
		endTime := t.now()
		endStamp := rfctime.New(endTime.UTC())
		if _, err := t.client.Track(ctx, apiexp.TrackRequest{
			ExperimentId:   experimentId,
			ExperimentName: name,
			Parameters:     encoded,
			StartTime:      &startStamp,
			EndTime:        &endStamp,
			Duration:       pointer.Ref(endTime.Sub(startTime).Seconds()),
			Status:         status,
			Result:         result,
			Error:          errMessage,
		}); err != nil {
			t.logger.Printf("failed to record the end of experiment %s: %s", name, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			terminal(apiexp.StatusFailed, nil, pointer.Ref(fmt.Sprintf("panic: %v", r)))
			panic(r)
		}
	}()

	result, err = fn(ctx)

	if err != nil {
		terminal(apiexp.StatusFailed, nil, pointer.Ref(err.Error()))
		return result, err
	}

	var stringified *string
	if result != nil {
		stringified = pointer.Ref(fmt.Sprintf("%v", result))
	}
	terminal(apiexp.StatusCompleted, stringified, nil)
	return result, nil
}

// LogMetric appends a metric sample to the run active on ctx.
//
// With no active run, or when the run started untracked ("offline" or
// "unknown"), the sample is dropped with a warning. Registry errors are
// logged and swallowed for the same reason Track never fails workloads.
func LogMetric(ctx context.Context, key string, value float64, step ...int) {
	r, ok := runOf(ctx)
	if !ok {
		log.Printf("no active experiment. metric %s=%v is dropped", key, value)
		return
	}
	r.tracker.logMetric(ctx, r.experimentId, key, value, step...)
}

func (t *Tracker) logMetric(ctx context.Context, experimentId, key string, value float64, step ...int) {
	if experimentId == "offline" || experimentId == "unknown" {
		t.logger.Printf("experiment runs untracked. metric %s=%v is dropped", key, value)
		return
	}

	req := apiexp.LogMetricRequest{Key: key, Value: pointer.Ref(value)}
	if 0 < len(step) {
		req.Step = pointer.Ref(step[0])
	}

	if _, err := t.client.LogMetric(ctx, experimentId, req); err != nil {
		t.logger.Printf("failed to log metric %s=%v for experiment %s: %s", key, value, experimentId, err)
	}
}

func (t *Tracker) encodeParams(name string, params map[string]any) map[string]json.RawMessage {
	if params == nil {
		return nil
	}
	encoded := map[string]json.RawMessage{}
	for key, value := range params {
		b, err := json.Marshal(value)
		if err != nil {
			t.logger.Printf("parameter %s of experiment %s is not JSON encodable. dropped: %s", key, name, err)
			continue
		}
		encoded[key] = json.RawMessage(b)
	}
	return encoded
}

// symbolOf derives (function name, module) from the runtime symbol of fn,
// like "github.com/acme/train.Run" -> ("Run", "github.com/acme/train").
func symbolOf(fn func(ctx context.Context) (any, error)) (functionName, module string) {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "", ""
	}
	full := f.Name()
	if i := strings.LastIndex(full, "."); 0 <= i {
		return full[i+1:], full[:i]
	}
	return full, ""
}
