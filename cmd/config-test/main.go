package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/chrissnell/epicurve/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	if yamlConfig.Server == sqliteConfig.Server {
		fmt.Println("✓ Server configuration matches")
	} else {
		fmt.Println("✗ Server configuration differs")
		printServerDiff(yamlConfig.Server, sqliteConfig.Server)
	}

	// SQLite returns scenarios ordered by name, so match them up by name
	fmt.Printf("\nScenarios - YAML: %d, SQLite: %d\n", len(yamlConfig.Scenarios), len(sqliteConfig.Scenarios))
	if len(yamlConfig.Scenarios) == len(sqliteConfig.Scenarios) {
		fmt.Println("✓ Scenario count matches")
	} else {
		fmt.Println("✗ Scenario count mismatch")
	}

	stored := make(map[string]config.ScenarioData, len(sqliteConfig.Scenarios))
	for _, sc := range sqliteConfig.Scenarios {
		stored[sc.Name] = sc
	}
	for _, yamlScenario := range yamlConfig.Scenarios {
		sqliteScenario, ok := stored[yamlScenario.Name]
		switch {
		case !ok:
			fmt.Printf("✗ Scenario %s missing from SQLite\n", yamlScenario.Name)
		case compareScenarios(yamlScenario, sqliteScenario):
			fmt.Printf("✓ Scenario %s matches\n", yamlScenario.Name)
		default:
			fmt.Printf("✗ Scenario %s differs\n", yamlScenario.Name)
		}
	}

	fmt.Println("\nTest completed!")
}

func compareScenarios(yaml, sqlite config.ScenarioData) bool {
	tolerance := 0.000001
	if yaml.Name != sqlite.Name ||
		yaml.Description != sqlite.Description ||
		yaml.Year != sqlite.Year ||
		yaml.StartDate != sqlite.StartDate ||
		yaml.InitialCases != sqlite.InitialCases ||
		yaml.Population != sqlite.Population ||
		math.Abs(yaml.R0-sqlite.R0) >= tolerance {
		return false
	}

	if len(yaml.Multipliers) != len(sqlite.Multipliers) {
		return false
	}
	for i := range yaml.Multipliers {
		if math.Abs(yaml.Multipliers[i]-sqlite.Multipliers[i]) >= tolerance {
			return false
		}
	}
	return true
}

func printServerDiff(yaml, sqlite config.ServerData) {
	if yaml.ListenAddr != sqlite.ListenAddr {
		fmt.Printf("  ListenAddr: YAML='%s', SQLite='%s'\n", yaml.ListenAddr, sqlite.ListenAddr)
	}
	if yaml.Port != sqlite.Port {
		fmt.Printf("  Port: YAML='%d', SQLite='%d'\n", yaml.Port, sqlite.Port)
	}
	if yaml.RequestTimeout != sqlite.RequestTimeout {
		fmt.Printf("  RequestTimeout: YAML='%s', SQLite='%s'\n", yaml.RequestTimeout, sqlite.RequestTimeout)
	}
	if yaml.EnableCORS != sqlite.EnableCORS {
		fmt.Printf("  EnableCORS: YAML='%t', SQLite='%t'\n", yaml.EnableCORS, sqlite.EnableCORS)
	}
}
