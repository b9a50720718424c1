package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type serverYAML struct {
	ListenAddr     string `yaml:"listen-addr,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Cert           string `yaml:"cert,omitempty"`
	Key            string `yaml:"key,omitempty"`
	RequestTimeout string `yaml:"request-timeout,omitempty"`
	EnableCORS     bool   `yaml:"enable-cors,omitempty"`
}

type scenarioYAML struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description,omitempty"`
	Year         int       `yaml:"year,omitempty"`
	StartDate    string    `yaml:"start-date,omitempty"`
	InitialCases int       `yaml:"initial-cases"`
	R0           float64   `yaml:"r0"`
	Population   int       `yaml:"population"`
	Multipliers  []float64 `yaml:"multipliers,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Server    serverYAML     `yaml:"server,omitempty"`
		Scenarios []scenarioYAML `yaml:"scenarios,omitempty"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	// Convert to our internal format
	config := &ConfigData{
		Server: ServerData{
			ListenAddr:     yamlConfig.Server.ListenAddr,
			Port:           yamlConfig.Server.Port,
			Cert:           yamlConfig.Server.Cert,
			Key:            yamlConfig.Server.Key,
			RequestTimeout: yamlConfig.Server.RequestTimeout,
			EnableCORS:     yamlConfig.Server.EnableCORS,
		},
		Scenarios: make([]ScenarioData, len(yamlConfig.Scenarios)),
	}

	seen := make(map[string]bool)
	for i, sc := range yamlConfig.Scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario #%d has no name", i+1)
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("duplicate scenario name: %s", sc.Name)
		}
		seen[sc.Name] = true

		config.Scenarios[i] = ScenarioData{
			Name:         sc.Name,
			Description:  sc.Description,
			Year:         sc.Year,
			StartDate:    sc.StartDate,
			InitialCases: sc.InitialCases,
			R0:           sc.R0,
			Population:   sc.Population,
			Multipliers:  sc.Multipliers,
		}
	}

	y.config = config
	return config, nil
}

// GetServerConfig returns the REST server section
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Server, nil
}

// GetScenarios returns all configured scenarios
func (y *YAMLProvider) GetScenarios() ([]ScenarioData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Scenarios, nil
}

// GetScenario returns the scenario with the given name
func (y *YAMLProvider) GetScenario(name string) (*ScenarioData, error) {
	scenarios, err := y.GetScenarios()
	if err != nil {
		return nil, err
	}
	return findScenario(scenarios, name)
}

// IsReadOnly returns true since YAML files are read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
