package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/epicurve/pkg/sir"
)

// ErrScenarioNotFound is returned when a named scenario is not configured
var ErrScenarioNotFound = errors.New("scenario not found")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetServerConfig() (*ServerData, error)
	GetScenarios() ([]ScenarioData, error)
	GetScenario(name string) (*ScenarioData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server    ServerData     `json:"server"`
	Scenarios []ScenarioData `json:"scenarios,omitempty"`
}

// ServerData holds the REST server settings
type ServerData struct {
	ListenAddr     string `json:"listen_addr,omitempty"`
	Port           int    `json:"port,omitempty"`
	Cert           string `json:"cert,omitempty"`
	Key            string `json:"key,omitempty"`
	RequestTimeout string `json:"request_timeout,omitempty"`
	EnableCORS     bool   `json:"enable_cors,omitempty"`
}

// Server defaults
const (
	DefaultListenAddr     = "0.0.0.0"
	DefaultPort           = 8080
	DefaultRequestTimeout = 30 * time.Second
)

// Timeout parses RequestTimeout, falling back to DefaultRequestTimeout when unset
func (s ServerData) Timeout() (time.Duration, error) {
	if s.RequestTimeout == "" {
		return DefaultRequestTimeout, nil
	}
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", s.RequestTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", d)
	}
	return d, nil
}

// ScenarioData is a named, stored set of simulation inputs
type ScenarioData struct {
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Year         int       `json:"year,omitempty"`
	StartDate    string    `json:"start_date"`
	InitialCases int       `json:"initial_cases"`
	R0           float64   `json:"r0"`
	Population   int       `json:"population"`
	Multipliers  []float64 `json:"multipliers,omitempty"`
}

// ToParameters converts the scenario to simulation parameters. A missing year
// defaults to sir.DefaultYear, a missing start date to Jan 21 of that year and
// missing multipliers to no mitigation (all 1.0). Domain validation is left to
// sir.Parameters.Validate.
func (s ScenarioData) ToParameters() (sir.Parameters, error) {
	p := sir.Parameters{
		Year:         s.Year,
		InitialCases: s.InitialCases,
		R0:           s.R0,
		Population:   s.Population,
	}
	if p.Year == 0 {
		p.Year = sir.DefaultYear
	}

	if s.StartDate == "" {
		p.StartDate = sir.Date(p.Year, time.January, 21)
	} else {
		start, err := sir.ParseDate(s.StartDate)
		if err != nil {
			return sir.Parameters{}, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		p.StartDate = start
	}

	switch len(s.Multipliers) {
	case 0:
		for i := range p.Multipliers {
			p.Multipliers[i] = 1.0
		}
	case sir.NumAnchors:
		copy(p.Multipliers[:], s.Multipliers)
	default:
		return sir.Parameters{}, fmt.Errorf("scenario %q: %w", s.Name, &sir.ParameterError{
			Field:  "multipliers",
			Value:  len(s.Multipliers),
			Reason: fmt.Sprintf("exactly %d control points required", sir.NumAnchors),
		})
	}

	return p, nil
}

// ScenarioFromParameters builds a storable scenario from simulation parameters
func ScenarioFromParameters(name, description string, p sir.Parameters) ScenarioData {
	return ScenarioData{
		Name:         name,
		Description:  description,
		Year:         p.Year,
		StartDate:    p.StartDate.Format(time.DateOnly),
		InitialCases: p.InitialCases,
		R0:           p.R0,
		Population:   p.Population,
		Multipliers:  append([]float64(nil), p.Multipliers[:]...),
	}
}

func findScenario(scenarios []ScenarioData, name string) (*ScenarioData, error) {
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
}
