package rest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/mlopslab/mlreg/pkg/utils/pointer"
	"github.com/mlopslab/mlreg/pkg/utils/try"
)

func respondJson(t *testing.T, status int, resp any) (http.Handler, func() *http.Request, func() []byte) {
	t.Helper()

	var request *http.Request
	var requestBody []byte
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request = r
		if r.Body != nil {
			requestBody = try.To(io.ReadAll(r.Body)).OrFatal(t)
		}

		w.Header().Add("Content-Type", "application/json")

		body, err := json.Marshal(resp)
		if err != nil {
			t.Fatal(err.Error())
		}

		w.WriteHeader(status)
		w.Write(body)
	})
	return h, func() *http.Request { return request }, func() []byte { return requestBody }
}

func TestTrack(t *testing.T) {
	t.Run("it posts the record and relays the response", func(t *testing.T) {
		expectedResponse := apiexp.TrackResponse{
			ExperimentId: "exp_20260205_100000",
			Status:       "success",
			Message:      "Experiment exp_20260205_100000 tracked successfully",
		}
		handler, lastRequest, lastBody := respondJson(t, http.StatusCreated, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		actual := try.To(testee.Track(context.Background(), apiexp.TrackRequest{
			ExperimentName: "train-classifier",
			Status:         apiexp.StatusRunning,
			Parameters: map[string]json.RawMessage{
				"learning_rate": json.RawMessage(`0.01`),
			},
		})).OrFatal(t)

		if actual != expectedResponse {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, expectedResponse)
		}

		req := lastRequest()
		if req.Method != http.MethodPost {
			t.Errorf("unmatch method: %s", req.Method)
		}
		if req.URL.Path != "/api/experiments/track" {
			t.Errorf("unmatch path: %s", req.URL.Path)
		}
		if ctyp := req.Header.Get("Content-Type"); ctyp != "application/json" {
			t.Errorf("unmatch content-type: %s", ctyp)
		}

		sent := apiexp.TrackRequest{}
		if err := json.Unmarshal(lastBody(), &sent); err != nil {
			t.Fatal(err)
		}
		if sent.ExperimentName != "train-classifier" || sent.Status != apiexp.StatusRunning {
			t.Errorf("unmatch sent body: %+v", sent)
		}
	})

	t.Run("it degrades to the offline sentinel when no one listens", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close() // now the port refuses connections

		testee := krst.NewClient(url)
		actual := try.To(testee.Track(context.Background(), apiexp.TrackRequest{
			ExperimentName: "train-classifier",
		})).OrFatal(t)

		if actual != apiexp.Offline() {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, apiexp.Offline())
		}
	})

	t.Run("it returns error for 4xx responses", func(t *testing.T) {
		handler, _, _ := respondJson(t, http.StatusBadRequest, map[string]any{
			"message": map[string]string{
				"reason": "bad request",
				"advice": "experiment_name is required to create a new experiment",
			},
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		if _, err := testee.Track(context.Background(), apiexp.TrackRequest{}); err == nil {
			t.Error("no error for 4xx response")
		}
	})

	t.Run("it returns error for 5xx responses", func(t *testing.T) {
		handler, _, _ := respondJson(t, http.StatusInternalServerError, map[string]any{
			"message": map[string]string{"reason": "unexpected error"},
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		if _, err := testee.Track(context.Background(), apiexp.TrackRequest{}); err == nil {
			t.Error("no error for 5xx response")
		}
	})
}

func TestGetExperiment(t *testing.T) {
	t.Run("when server returns data, it returns that as is", func(t *testing.T) {
		startTime := rfctime.New(time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC))
		expectedResponse := apiexp.Detail{
			ExperimentId:   "exp_20260205_100000",
			ExperimentName: "train-classifier",
			Status:         apiexp.StatusCompleted,
			StartTime:      &startTime,
			Duration:       pointer.Ref(90.0),
			Result:         pointer.Ref("0.93"),
			CreatedAt:      rfctime.New(time.Date(2026, 2, 5, 10, 0, 0, 50_000_000, time.UTC)),
			Parameters: map[string]json.RawMessage{
				"learning_rate": json.RawMessage(`0.01`),
			},
			Metrics: []apiexp.MetricPoint{
				{
					Key: "loss", Value: 0.5, Step: pointer.Ref(2),
					Timestamp: rfctime.New(time.Date(2026, 2, 5, 10, 0, 30, 0, time.UTC)),
				},
			},
		}
		handler, lastRequest, _ := respondJson(t, http.StatusOK, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		actual := try.To(testee.GetExperiment(context.Background(), "exp_20260205_100000")).OrFatal(t)

		if !actual.Equal(expectedResponse) {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, expectedResponse)
		}

		if p := lastRequest().URL.Path; p != "/api/experiments/exp_20260205_100000" {
			t.Errorf("unmatch path: %s", p)
		}
	})

	t.Run("it returns error for 404", func(t *testing.T) {
		handler, _, _ := respondJson(t, http.StatusNotFound, map[string]any{
			"message": map[string]string{"reason": "not found"},
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		if _, err := testee.GetExperiment(context.Background(), "exp_no_such"); err == nil {
			t.Error("no error for 404 response")
		}
	})
}

func TestFindExperiments(t *testing.T) {
	t.Run("it sends the limit and relays the listing", func(t *testing.T) {
		expectedResponse := apiexp.ListResponse{
			Experiments: []apiexp.Summary{
				{
					ExperimentId:   "exp_20260205_100001",
					ExperimentName: "second",
					Status:         apiexp.StatusRunning,
					CreatedAt:      rfctime.New(time.Date(2026, 2, 5, 10, 0, 1, 0, time.UTC)),
				},
			},
			Count: 1,
		}
		handler, lastRequest, _ := respondJson(t, http.StatusOK, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		actual := try.To(testee.FindExperiments(context.Background(), 5)).OrFatal(t)

		if actual.Count != 1 || len(actual.Experiments) != 1 {
			t.Errorf("unmatch: %+v", actual)
		}
		if !actual.Experiments[0].Equal(expectedResponse.Experiments[0]) {
			t.Errorf("unmatch entry: %+v", actual.Experiments[0])
		}

		req := lastRequest()
		if req.URL.Path != "/api/experiments" {
			t.Errorf("unmatch path: %s", req.URL.Path)
		}
		if l := req.URL.Query().Get("limit"); l != "5" {
			t.Errorf("unmatch limit: %s", l)
		}
	})

	t.Run("it omits the limit for the server default", func(t *testing.T) {
		handler, lastRequest, _ := respondJson(t, http.StatusOK, apiexp.ListResponse{
			Experiments: []apiexp.Summary{}, Count: 0,
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		try.To(testee.FindExperiments(context.Background(), 0)).OrFatal(t)

		if q := lastRequest().URL.RawQuery; q != "" {
			t.Errorf("query should be empty: %s", q)
		}
	})
}

func TestLogMetric(t *testing.T) {
	t.Run("it posts the sample and relays the response", func(t *testing.T) {
		expectedResponse := apiexp.LogMetricResponse{
			Status:  "success",
			Message: "Metric logged for experiment exp_20260205_100000",
		}
		handler, lastRequest, lastBody := respondJson(t, http.StatusCreated, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		actual := try.To(testee.LogMetric(
			context.Background(), "exp_20260205_100000",
			apiexp.LogMetricRequest{Key: "loss", Value: pointer.Ref(0.5), Step: pointer.Ref(2)},
		)).OrFatal(t)

		if actual != expectedResponse {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, expectedResponse)
		}

		if p := lastRequest().URL.Path; p != "/api/experiments/exp_20260205_100000/metrics" {
			t.Errorf("unmatch path: %s", p)
		}

		sent := apiexp.LogMetricRequest{}
		if err := json.Unmarshal(lastBody(), &sent); err != nil {
			t.Fatal(err)
		}
		if sent.Key != "loss" || sent.Value == nil || *sent.Value != 0.5 {
			t.Errorf("unmatch sent body: %+v", sent)
		}
	})

	t.Run("it does not degrade offline: connection failures are errors", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		testee := krst.NewClient(url)
		if _, err := testee.LogMetric(
			context.Background(), "exp_20260205_100000",
			apiexp.LogMetricRequest{Key: "loss", Value: pointer.Ref(0.5)},
		); err == nil {
			t.Error("no error for connection failure")
		}
	})
}

func TestHealth(t *testing.T) {
	t.Run("it asks GET /health", func(t *testing.T) {
		expectedResponse := apiexp.Health{
			Status:    "healthy",
			Service:   "mlreg-registry",
			Timestamp: rfctime.New(time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)),
		}
		handler, lastRequest, _ := respondJson(t, http.StatusOK, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		actual := try.To(testee.Health(context.Background())).OrFatal(t)

		if actual.Status != "healthy" || actual.Service != "mlreg-registry" {
			t.Errorf("unmatch: %+v", actual)
		}
		if p := lastRequest().URL.Path; p != "/health" {
			t.Errorf("unmatch path: %s", p)
		}
	})
}

func TestNewClient(t *testing.T) {
	t.Run("it prefers the explicit base URL", func(t *testing.T) {
		t.Setenv(krst.BaseURLEnv, "http://registry.invalid:5000")

		handler, _, _ := respondJson(t, http.StatusOK, apiexp.Health{Status: "healthy"})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := krst.NewClient(server.URL)
		if _, err := testee.Health(context.Background()); err != nil {
			t.Errorf("explicit base URL is not used: %v", err)
		}
	})

	t.Run("it falls back to the environment variable", func(t *testing.T) {
		handler, _, _ := respondJson(t, http.StatusOK, apiexp.Health{Status: "healthy"})
		server := httptest.NewServer(handler)
		defer server.Close()

		t.Setenv(krst.BaseURLEnv, server.URL)

		testee := krst.NewClient("")
		if _, err := testee.Health(context.Background()); err != nil {
			t.Errorf("environment variable is not used: %v", err)
		}
	})
}
