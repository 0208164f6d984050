package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/export"
	"github.com/sells-group/geocentral/internal/model"
	"github.com/sells-group/geocentral/internal/pipeline"
	"github.com/sells-group/geocentral/internal/spatial"
	"github.com/sells-group/geocentral/internal/store"
)

// AnalyzeRequest is the body of POST /api/v1/analyze. Unset fields fall back
// to the server defaults.
type AnalyzeRequest struct {
	RadiusKM   *float64       `json:"radius_km" validate:"omitempty,gte=0"`
	Exclusive  *bool          `json:"exclusive"`
	SampleSize *int           `json:"sample_size" validate:"omitempty,gte=0"`
	Top        *int           `json:"top" validate:"omitempty,gte=0"`
	Metric     string         `json:"metric" validate:"omitempty,oneof=closeness degree"`
	Source     string         `json:"source" validate:"max=256"`
	Listings   []ListingInput `json:"listings" validate:"required,min=1,dive"`
}

// ListingInput is one listing in an analyze request. Coordinates may be null
// or absent; such listings are skipped by the graph builder.
type ListingInput struct {
	Address     string              `json:"address" validate:"max=512"`
	City        string              `json:"city" validate:"max=128"`
	Latitude    model.OptionalFloat `json:"latitude"`
	Longitude   model.OptionalFloat `json:"longitude"`
	RentPerSqft model.OptionalFloat `json:"rent_per_sqft"`
}

func (in ListingInput) listing() model.Listing {
	return model.Listing{
		Address:     in.Address,
		City:        in.City,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		RentPerSqft: in.RentPerSqft,
	}
}

// RunDetail is the body of GET /api/v1/runs/{runID}.
type RunDetail struct {
	Run    *model.Run         `json:"run"`
	Scores []centrality.Score `json:"scores"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}
	if len(req.Listings) > s.cfg.MaxListings {
		respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("at most %d listings per request", s.cfg.MaxListings))
		return
	}
	if msg := checkCoordinates(req.Listings); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	opts, top := s.options(req)
	listings := make([]model.Listing, len(req.Listings))
	for i, in := range req.Listings {
		listings[i] = in.listing()
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	res, err := pipeline.New(opts, s.store, pipeline.NewLogObserver(s.log)).Run(r.Context(), source, listings)
	if err != nil {
		s.log.Error("analyze failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	report := export.NewReport(res.RunID, res.Params, res.RunResult(), top)

	format := export.FormatJSON
	if strings.Contains(r.Header.Get("Accept"), "yaml") {
		format = export.FormatYAML
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err := export.WriteRanking(w, format, report); err != nil {
		s.log.Warn("analyze: write response", zap.Error(err))
	}
}

func (s *Server) options(req AnalyzeRequest) (pipeline.Options, int) {
	opts := s.defaults
	if req.RadiusKM != nil {
		opts.RadiusKM = *req.RadiusKM
	}
	if req.Exclusive != nil {
		opts.Policy = spatial.PolicyInclusive
		if *req.Exclusive {
			opts.Policy = spatial.PolicyExclusive
		}
	}
	if req.SampleSize != nil {
		opts.SampleSize = *req.SampleSize
	}
	if req.Metric != "" {
		opts.Metric = pipeline.Metric(req.Metric)
	}
	top := s.cfg.Top
	if req.Top != nil {
		top = *req.Top
	}
	return opts, top
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.log.Error("list runs failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	runID := chi.URLParam(r, "runID")
	run, err := s.store.GetRun(r.Context(), runID)
	if eris.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.log.Error("get run failed", zap.String("run_id", runID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	scores, err := s.store.GetScores(r.Context(), runID)
	if err != nil {
		s.log.Error("get scores failed", zap.String("run_id", runID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get scores")
		return
	}
	if scores == nil {
		scores = []centrality.Score{}
	}
	respondJSON(w, http.StatusOK, RunDetail{Run: run, Scores: scores})
}

// helpers

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

func checkCoordinates(listings []ListingInput) string {
	for i, l := range listings {
		if l.Latitude.Valid && (l.Latitude.Value < -90 || l.Latitude.Value > 90) {
			return fmt.Sprintf("listings[%d].latitude must be between -90 and 90", i)
		}
		if l.Longitude.Valid && (l.Longitude.Value < -180 || l.Longitude.Value > 180) {
			return fmt.Sprintf("listings[%d].longitude must be between -180 and 180", i)
		}
	}
	return ""
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
