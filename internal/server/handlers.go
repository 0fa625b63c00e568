package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

func (s *Server) caller(r *http.Request) model.Caller {
	c, _ := CallerFrom(r.Context())
	return c
}

// writeAppError maps an orchestrator error kind to a status code. A runner
// failure also carries the failed record.
func (s *Server) writeAppError(w http.ResponseWriter, err error, rec *model.TestRecord) {
	switch app.KindOf(err) {
	case app.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case app.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case app.KindForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	case app.KindNotSupported:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case app.KindRunner:
		writeJSON(w, http.StatusInternalServerError, RunFailedResponse{Error: err.Error(), Test: rec})
	default:
		s.logger.Error("request failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func filterFrom(r *http.Request) model.Filter {
	return model.Filter{TestType: model.TestType(r.URL.Query().Get("type"))}
}

// intParam parses an optional positive integer query parameter.
func intParam(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// handleHealth godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCreateTest godoc
// @Summary Create a test
// @Description Validates the URL, type and parameters and stores a pending test owned by the caller.
// @Tags tests
// @Accept json
// @Produce json
// @Param request body CreateTestRequest true "Test definition"
// @Success 201 {object} model.TestRecord
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests [post]
func (s *Server) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var body CreateTestRequest
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("decoding create test body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rec, err := s.orchestrator.Create(r.Context(), s.caller(r), model.TestRequest{
		Owner:      body.Owner,
		URL:        body.URL,
		TestType:   body.TestType,
		Parameters: body.Parameters,
	})
	if err != nil {
		s.logger.Warn("creating test", logging.Err(err))
		s.writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleListTests godoc
// @Summary List tests
// @Description Every test the caller owns, most recent first.
// @Tags tests
// @Produce json
// @Param type query string false "Filter by test type"
// @Success 200 {array} model.TestRecord
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests [get]
func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	recs, err := s.orchestrator.List(r.Context(), s.caller(r), filterFrom(r))
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	if recs == nil {
		recs = []*model.TestRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleListPaginated godoc
// @Summary List tests page by page
// @Tags tests
// @Produce json
// @Param page query int false "1-based page" default(1)
// @Param pageSize query int false "Page size, at most 100" default(10)
// @Param type query string false "Filter by test type"
// @Success 200 {object} TestPage
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/paginated [get]
func (s *Server) handleListPaginated(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(r, "page", 1)
	if !ok {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	size, ok := intParam(r, "pageSize", app.DefaultPageSize)
	if !ok {
		writeError(w, http.StatusBadRequest, "pageSize must be an integer")
		return
	}

	p, err := s.orchestrator.ListPaginated(r.Context(), s.caller(r), page, size, filterFrom(r))
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	if p.Items == nil {
		p.Items = []*model.TestRecord{}
	}
	writeJSON(w, http.StatusOK, p)
}

// handleStats godoc
// @Summary Dashboard statistics
// @Tags tests
// @Produce json
// @Success 200 {object} model.Stats
// @Security BearerAuth
// @Router /api/tests/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Stats(r.Context(), s.caller(r)))
}

// handleDemo godoc
// @Summary Sample results
// @Description Fixed synthetic results for UI previews. Nothing is stored and no engine runs.
// @Tags tests
// @Accept json
// @Produce json
// @Param request body DemoRequest true "Test type"
// @Success 200 {object} app.DemoResult
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/demo [post]
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	var body DemoRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res, err := s.orchestrator.RunDemo(r.Context(), body.TestType)
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetTest godoc
// @Summary Get a test
// @Tags tests
// @Produce json
// @Param id path string true "Test id"
// @Success 200 {object} model.TestRecord
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/{id} [get]
func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.orchestrator.Get(r.Context(), s.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteTest godoc
// @Summary Delete a test
// @Tags tests
// @Param id path string true "Test id"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/{id} [delete]
func (s *Server) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.Delete(r.Context(), s.caller(r), id); err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	s.logger.Info("deleted test", logging.Field{Key: "test_id", Value: id})
	w.WriteHeader(http.StatusNoContent)
}

// handleRunTest godoc
// @Summary Run a test
// @Description Runs the engine synchronously. An engine failure returns 500 with the failed record.
// @Tags tests
// @Produce json
// @Param id path string true "Test id"
// @Success 200 {object} model.TestRecord
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} RunFailedResponse
// @Security BearerAuth
// @Router /api/tests/{id}/run [put]
func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.orchestrator.Run(r.Context(), s.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, err, rec)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHistory godoc
// @Summary Run history
// @Tags tests
// @Produce json
// @Param id path string true "Test id"
// @Param limit query int false "Maximum entries, 0 for all"
// @Success 200 {array} model.RunEntry
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/{id}/history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	runs, err := s.orchestrator.History(r.Context(), s.caller(r), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	if runs == nil {
		runs = []*model.RunEntry{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleCompare godoc
// @Summary Compare the last two runs
// @Tags tests
// @Produce json
// @Param id path string true "Test id"
// @Success 200 {object} app.Comparison
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/tests/{id}/compare [get]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.orchestrator.CompareRuns(r.Context(), s.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
