package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chrissnell/epicurve/internal/log"
	"github.com/chrissnell/epicurve/pkg/config"
	"github.com/chrissnell/epicurve/pkg/responseformat"
	"github.com/chrissnell/epicurve/pkg/sir"
	"github.com/gorilla/mux"
)

// maxRequestBody bounds the size of a /simulate request body
const maxRequestBody = 1 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, nil)
}

// Simulate runs the model on the parameters in the request body
func (h *Handlers) Simulate(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxRequestBody)

	var body config.ScenarioData
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	h.run(w, req, body)
}

// ListScenarios returns the configured scenarios
func (h *Handlers) ListScenarios(w http.ResponseWriter, req *http.Request) {
	scenarios, err := h.controller.configProvider.GetScenarios()
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, fmt.Errorf("loading scenarios: %w", err))
		return
	}

	list := ScenarioList{Scenarios: make([]ScenarioView, 0, len(scenarios))}
	for _, sc := range scenarios {
		list.Scenarios = append(list.Scenarios, ScenarioView{
			Name:        sc.Name,
			Description: sc.Description,
			StartDate:   sc.StartDate,
			R0:          sc.R0,
			Population:  sc.Population,
		})
	}
	h.formatter.WriteResponse(w, req, list, nil)
}

// RunScenario runs a configured scenario by name
func (h *Handlers) RunScenario(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]

	sc, err := h.controller.configProvider.GetScenario(name)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.run(w, req, *sc)
}

func (h *Handlers) run(w http.ResponseWriter, req *http.Request, sc config.ScenarioData) {
	runID := req.Header.Get(log.RequestIDHeader)

	params, err := sc.ToParameters()
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	started := time.Now()
	res, err := sir.Simulate(params)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.controller.logger.Debugw("simulation complete",
		"request_id", runID,
		"scenario", sc.Name,
		"days", res.Len(),
		"elapsed", time.Since(started),
	)

	h.formatter.WriteResponse(w, req, newSimulationResponse(runID, sc.Name, res), nil)
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	}
	h.formatter.WriteError(w, req, status, err)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, sir.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, sir.ErrNumericalInstability):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
