package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
)

func (c *client) Track(ctx context.Context, req apiexp.TrackRequest) (apiexp.TrackResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, trackTimeout)
	defer cancel()

	b, err := json.Marshal(req)
	if err != nil {
		return apiexp.TrackResponse{}, err
	}

	hreq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("api", "experiments", "track"), bytes.NewBuffer(b),
	)
	if err != nil {
		return apiexp.TrackResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		if isConnectionFailure(err) {
			// no registry to talk to. workloads go on without tracking.
			return apiexp.Offline(), nil
		}
		return apiexp.TrackResponse{}, err
	}
	defer resp.Body.Close()

	var tracked apiexp.TrackResponse
	if err := unmarshalJsonResponse(
		resp, &tracked,
		MessageFor{
			Status4xx: "tracking request is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexp.TrackResponse{}, err
	}
	return tracked, nil
}

func (c *client) GetExperiment(ctx context.Context, experimentId string) (apiexp.Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("api", "experiments", experimentId), nil,
	)
	if err != nil {
		return apiexp.Detail{}, err
	}

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		return apiexp.Detail{}, err
	}
	defer resp.Body.Close()

	var detail apiexp.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("experiment:%s is not found", experimentId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexp.Detail{}, err
	}
	return detail, nil
}

func (c *client) FindExperiments(ctx context.Context, limit int) (apiexp.ListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	target := c.apipath("api", "experiments")
	if 0 < limit {
		target += "?limit=" + strconv.Itoa(limit)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apiexp.ListResponse{}, err
	}

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		return apiexp.ListResponse{}, err
	}
	defer resp.Body.Close()

	var listing apiexp.ListResponse
	if err := unmarshalJsonResponse(
		resp, &listing,
		MessageFor{
			Status4xx: "listing request is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexp.ListResponse{}, err
	}
	return listing, nil
}

func (c *client) LogMetric(
	ctx context.Context, experimentId string, req apiexp.LogMetricRequest,
) (apiexp.LogMetricResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := json.Marshal(req)
	if err != nil {
		return apiexp.LogMetricResponse{}, err
	}

	hreq, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.apipath("api", "experiments", experimentId, "metrics"),
		bytes.NewBuffer(b),
	)
	if err != nil {
		return apiexp.LogMetricResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		return apiexp.LogMetricResponse{}, err
	}
	defer resp.Body.Close()

	var logged apiexp.LogMetricResponse
	if err := unmarshalJsonResponse(
		resp, &logged,
		MessageFor{
			Status4xx: "metric is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexp.LogMetricResponse{}, err
	}
	return logged, nil
}

func (c *client) Health(ctx context.Context) (apiexp.Health, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("health"), nil)
	if err != nil {
		return apiexp.Health{}, err
	}

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		return apiexp.Health{}, err
	}
	defer resp.Body.Close()

	var health apiexp.Health
	if err := unmarshalJsonResponse(
		resp, &health,
		MessageFor{
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexp.Health{}, err
	}
	return health, nil
}

// connection level failure: dialing the registry did not work at all.
//
// Timeouts and protocol errors are NOT connection failures; they mean a
// registry is there, and the caller should hear about the problem.
func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
