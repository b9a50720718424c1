package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/epicurve/internal/log"
	"github.com/chrissnell/epicurve/pkg/config"
	"github.com/chrissnell/epicurve/pkg/sir"
)

func main() {
	def := sir.DefaultParameters()

	var (
		year         = flag.Int("year", def.Year, "Simulation year (horizon ends Dec 31)")
		startStr     = flag.String("start", "", "Epidemic start date (YYYY-MM-DD) between Dec 31 of the prior year and May 31 (default Jan 21 of -year)")
		initialCases = flag.Int("cases", def.InitialCases, "Initial infected count")
		r0           = flag.Float64("r0", def.R0, "Basic reproduction number [0, 5]")
		population   = flag.Int("population", def.Population, "Population size")
		multStr      = flag.String("multipliers", "", "Nine comma-separated transmission multipliers for the 1st of Jan..Sep (default all 1.0)")
		scenario     = flag.String("scenario", "", "Run a named scenario from -config instead of the flags above")
		cfgFile      = flag.String("config", "config.yaml", "Scenario configuration (YAML) used with -scenario")
		csvOutput    = flag.String("csv", "", "Write the daily series to this CSV file ('-' for stdout)")
		debug        = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var params sir.Parameters
	var err error
	if *scenario != "" {
		params, err = loadScenario(*cfgFile, *scenario)
	} else {
		params, err = paramsFromFlags(*year, *startStr, *initialCases, *r0, *population, *multStr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log.Debugf("running simulation: %+v", params)
	res, err := sir.Simulate(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}

	if *csvOutput != "" {
		if err := writeCSV(*csvOutput, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		if *csvOutput == "-" {
			return
		}
	}

	printSummary(res)
}

func loadScenario(cfgFile, name string) (sir.Parameters, error) {
	provider := config.NewYAMLProvider(cfgFile)
	defer provider.Close()

	sc, err := provider.GetScenario(name)
	if err != nil {
		return sir.Parameters{}, err
	}
	return sc.ToParameters()
}

func paramsFromFlags(year int, startStr string, cases int, r0 float64, population int, multStr string) (sir.Parameters, error) {
	sc := config.ScenarioData{
		Year:         year,
		StartDate:    startStr,
		InitialCases: cases,
		R0:           r0,
		Population:   population,
	}
	if multStr != "" {
		for _, field := range strings.Split(multStr, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return sir.Parameters{}, fmt.Errorf("invalid multiplier %q: %w", field, err)
			}
			sc.Multipliers = append(sc.Multipliers, v)
		}
	}
	return sc.ToParameters()
}

func writeCSV(path string, res *sir.Result) error {
	if path == "-" {
		return res.WriteCSV(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(res *sir.Result) {
	p := res.Parameters
	sum := res.Summary()

	fmt.Printf("SIR simulation %s → %s\n", p.StartDate.Format(time.DateOnly), p.EndDate().Format(time.DateOnly))
	fmt.Printf("  Population:     %d\n", p.Population)
	fmt.Printf("  Initial cases:  %d\n", p.InitialCases)
	fmt.Printf("  R0:             %.2f (γ = %.2f, D = %.0f days)\n", p.R0, sir.Gamma, 1/sir.Gamma)
	fmt.Printf("  Multipliers:    %v\n", p.Multipliers)
	fmt.Printf("  Days simulated: %d\n", sum.Days)
	fmt.Printf("  Peak infected:  %.0f on %s\n", sum.PeakInfected, sum.PeakDate.Format(time.DateOnly))
	fmt.Printf("  Final removed:  %.0f (%.1f%% of population)\n", sum.FinalRemoved, sum.AttackRate*100)
	fmt.Printf("  Final R_eff:    %.3f (mean %.3f)\n", sum.FinalReff, sum.MeanReff)
}
