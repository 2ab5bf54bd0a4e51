package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg-api-types/misc/rfctime"
	apierr "github.com/mlopslab/mlreg/pkg/bindings/errors"
	bindexp "github.com/mlopslab/mlreg/pkg/bindings/experiments"
	"github.com/mlopslab/mlreg/pkg/domain"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
	domerr "github.com/mlopslab/mlreg/pkg/domain/errors"
)

// TrackExperimentHandler serves POST /api/experiments/track .
//
// The request upserts an experiment: a body without known experiment_id
// creates one, a body with known experiment_id updates its lifecycle
// fields. experiment_name is required only for creation.
func TrackExperimentHandler(dbExp kdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiexp.TrackRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithAdvice(err.Error()),
				apierr.WithError(err),
			)
		}

		var status domain.ExperimentStatus
		if req.Status != "" {
			s, err := domain.AsExperimentStatus(req.Status)
			if err != nil {
				return apierr.BadRequest(
					`status should be one of "running", "completed" or "failed"`, err,
				)
			}
			status = s
		}

		experimentId, err := dbExp.Save(ctx, domain.ExperimentRecord{
			ExperimentId:   req.ExperimentId,
			ExperimentName: req.ExperimentName,
			FunctionName:   req.FunctionName,
			Module:         req.Module,
			Status:         status,
			Parameters:     req.Parameters,
			StartTime:      pointTime(req.StartTime),
			EndTime:        pointTime(req.EndTime),
			Duration:       req.Duration,
			Result:         req.Result,
			Error:          req.Error,
		})
		if errors.Is(err, domerr.ErrNameRequired) {
			return apierr.BadRequest(
				"experiment_name is required to create a new experiment", err,
			)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiexp.TrackResponse{
			ExperimentId: experimentId,
			Status:       "success",
			Message:      fmt.Sprintf("Experiment %s tracked successfully", experimentId),
		})
	}
}

// GetExperimentHandler serves GET /api/experiments/:experimentId .
func GetExperimentHandler(dbExp kdb.Interface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		experimentId := c.Param(paramKey)

		experiment, err := dbExp.Get(ctx, experimentId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindexp.ComposeDetail(experiment))
	}
}

// FindExperimentHandler serves GET /api/experiments .
//
// Query parameter "limit" bounds the listing length (default 100).
func FindExperimentHandler(dbExp kdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		limit := 100
		if p := c.QueryParam("limit"); p != "" {
			l, err := strconv.Atoi(p)
			if err != nil {
				return apierr.BadRequest(`"limit" should be an integer`, err)
			}
			if l < 0 {
				return apierr.BadRequest(`"limit" should not be negative`, nil)
			}
			limit = l
		}

		summaries, err := dbExp.Find(ctx, limit)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found := make([]apiexp.Summary, 0, len(summaries))
		for _, s := range summaries {
			found = append(found, bindexp.ComposeSummary(s))
		}

		return c.JSON(http.StatusOK, apiexp.ListResponse{
			Experiments: found,
			Count:       len(found),
		})
	}
}

// LogMetricHandler serves POST /api/experiments/:experimentId/metrics .
//
// The experiment is not checked for existence; orphan samples are
// accepted and show up once the experiment is tracked.
func LogMetricHandler(dbExp kdb.Interface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		experimentId := c.Param(paramKey)

		req := apiexp.LogMetricRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithAdvice(err.Error()),
				apierr.WithError(err),
			)
		}

		if req.Key == "" || req.Value == nil {
			return apierr.BadRequest("key and value are required", nil)
		}

		if err := dbExp.AppendMetric(ctx, experimentId, req.Key, *req.Value, req.Step); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiexp.LogMetricResponse{
			Status:  "success",
			Message: fmt.Sprintf("Metric logged for experiment %s", experimentId),
		})
	}
}

// HealthHandler serves GET /health .
func HealthHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, apiexp.Health{
			Status:    "healthy",
			Service:   "mlreg-registry",
			Timestamp: rfctime.New(time.Now()),
		})
	}
}

func pointTime(t *rfctime.RFC3339) *time.Time {
	if t == nil {
		return nil
	}
	instant := t.Time()
	return &instant
}
