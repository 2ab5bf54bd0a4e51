package rest

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
)

// environment variable overriding the registry location when NewClient is
// given no base URL.
const BaseURLEnv = "MLREG_BASE_URL"

// registry location used when neither an argument nor BaseURLEnv gives one.
const DefaultBaseURL = "http://localhost:5000"

// upserts are given a longer deadline than queries: they sit on the hot
// path of tracked calls and must settle, one way or the other.
const (
	trackTimeout = 10 * time.Second
	queryTimeout = 5 * time.Second
)

// Client is the transport to a registry server.
type Client interface {
	// Track upserts an experiment.
	//
	// When the registry is unreachable (connection level failure), Track
	// degrades: it returns the offline sentinel response and no error,
	// so that tracked workloads keep running without a registry.
	//
	// Args
	//
	// - context.Context
	//
	// - apiexp.TrackRequest: experiment fields to be upserted.
	//
	// Returns
	//
	// - apiexp.TrackResponse: registry response, or apiexp.Offline() when
	// the registry is unreachable.
	//
	// - error: non-2xx responses and transport failures other than
	// connection ones.
	Track(ctx context.Context, req apiexp.TrackRequest) (apiexp.TrackResponse, error)

	// GetExperiment retrieves an experiment detail.
	//
	// Args
	//
	// - context.Context
	//
	// - string: experiment id to be retrieved.
	//
	// Returns
	//
	// - apiexp.Detail
	//
	// - error
	GetExperiment(ctx context.Context, experimentId string) (apiexp.Detail, error)

	// FindExperiments lists experiments, most recently created first.
	//
	// Args
	//
	// - context.Context
	//
	// - int: maximum length of the listing. Zero or negative means the
	// server default.
	//
	// Returns
	//
	// - apiexp.ListResponse
	//
	// - error
	FindExperiments(ctx context.Context, limit int) (apiexp.ListResponse, error)

	// LogMetric appends a metric sample to an experiment.
	//
	// Args
	//
	// - context.Context
	//
	// - string: experiment id the sample belongs to.
	//
	// - apiexp.LogMetricRequest: the sample.
	//
	// Returns
	//
	// - apiexp.LogMetricResponse
	//
	// - error
	LogMetric(ctx context.Context, experimentId string, req apiexp.LogMetricRequest) (apiexp.LogMetricResponse, error)

	// Health asks the registry for its liveness.
	//
	// Args
	//
	// - context.Context
	//
	// Returns
	//
	// - apiexp.Health
	//
	// - error
	Health(ctx context.Context) (apiexp.Health, error)
}

type client struct {
	httpclient *http.Client
	base       string
}

// create new registry client.
//
// # Args
//
// - baseUrl: registry location. When empty, BaseURLEnv and then
// DefaultBaseURL are consulted.
//
// # Return
//
// - Client: created client
func NewClient(baseUrl string) Client {
	if baseUrl == "" {
		baseUrl = os.Getenv(BaseURLEnv)
	}
	if baseUrl == "" {
		baseUrl = DefaultBaseURL
	}

	return &client{
		httpclient: new(http.Client),
		base:       strings.TrimSuffix(baseUrl, "/"),
	}
}

// build URL with path
func (c *client) apipath(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, c.base)
	for _, p := range path {
		parts = append(parts, strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/"))
	}
	return strings.Join(parts, "/")
}
