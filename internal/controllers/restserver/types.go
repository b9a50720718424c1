package restserver

import (
	"io"
	"time"

	"github.com/chrissnell/epicurve/pkg/sir"
)

// ParametersView is the JSON form of the inputs a result was computed from
type ParametersView struct {
	Year         int       `json:"year"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	InitialCases int       `json:"initial_cases"`
	R0           float64   `json:"r0"`
	Gamma        float64   `json:"gamma"`
	Population   int       `json:"population"`
	Multipliers  []float64 `json:"multipliers"`
}

// SeriesData holds the date-indexed output series in columnar form, one
// column per chart trace.
type SeriesData struct {
	Dates              []string  `json:"dates"`
	Susceptible        []int64   `json:"susceptible"`
	Infected           []int64   `json:"infected"`
	Removed            []int64   `json:"removed"`
	TransmissionRate   []float64 `json:"transmission_rate"`
	ReproductionNumber []float64 `json:"reproduction_number"`
}

// SimulationResponse is returned by /simulate and /scenarios/{name}
type SimulationResponse struct {
	RunID      string         `json:"run_id"`
	Scenario   string         `json:"scenario,omitempty"`
	Parameters ParametersView `json:"parameters"`
	Summary    sir.Summary    `json:"summary"`
	Series     SeriesData     `json:"series"`

	result *sir.Result
}

// WriteCSV renders the daily series as CSV
func (r *SimulationResponse) WriteCSV(w io.Writer) error {
	return r.result.WriteCSV(w)
}

// ScenarioView is one entry of the /scenarios listing
type ScenarioView struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"start_date"`
	R0          float64 `json:"r0"`
	Population  int     `json:"population"`
}

// ScenarioList is the /scenarios response body
type ScenarioList struct {
	Scenarios []ScenarioView `json:"scenarios"`
}

func newSimulationResponse(runID, scenario string, res *sir.Result) *SimulationResponse {
	p := res.Parameters
	s, i, r := res.Counts()

	dates := make([]string, res.Len())
	for k, d := range res.Dates {
		dates[k] = d.Format(time.DateOnly)
	}

	return &SimulationResponse{
		RunID:    runID,
		Scenario: scenario,
		Parameters: ParametersView{
			Year:         p.Year,
			StartDate:    p.StartDate.Format(time.DateOnly),
			EndDate:      p.EndDate().Format(time.DateOnly),
			InitialCases: p.InitialCases,
			R0:           p.R0,
			Gamma:        sir.Gamma,
			Population:   p.Population,
			Multipliers:  append([]float64(nil), p.Multipliers[:]...),
		},
		Summary: res.Summary(),
		Series: SeriesData{
			Dates:              dates,
			Susceptible:        s,
			Infected:           i,
			Removed:            r,
			TransmissionRate:   res.Rate,
			ReproductionNumber: res.Reff,
		},
		result: res,
	}
}
