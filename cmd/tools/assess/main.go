// Command assess runs a one-shot fall-risk assessment, either offline
// from a health snapshot file or against a running gaitmon daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/vitalsense-data/stride.report/internal/api"
	"github.com/vitalsense-data/stride.report/internal/engine"
	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/trend"
)

// inputFile is the offline input shape: one snapshot plus optional
// metric trends and risk score history for the forecast.
type inputFile struct {
	Snapshot    health.Snapshot      `json:"snapshot"`
	Trends      []health.Series      `json:"trends,omitempty"`
	RiskHistory []health.MetricPoint `json:"risk_history,omitempty"`
}

type output struct {
	Assessment *engine.RiskAssessment `json:"assessment"`
	Forecast   *trend.Forecast        `json:"forecast,omitempty"`
}

func main() {
	input := flag.String("file", "", "health snapshot JSON file (offline mode)")
	addr := flag.String("addr", "", "daemon base URL, e.g. http://localhost:8080 (asks the daemon instead)")
	flag.Parse()

	var out output
	switch {
	case *addr != "":
		c := api.NewClient(nil, *addr)
		a, err := c.RunAssessment()
		if err != nil {
			log.Fatalf("daemon assessment failed: %v", err)
		}
		out.Assessment = a

	case *input != "":
		data, err := os.ReadFile(*input)
		if err != nil {
			log.Fatalf("failed to read %s: %v", *input, err)
		}
		var in inputFile
		if err := json.Unmarshal(data, &in); err != nil {
			log.Fatalf("failed to parse %s: %v", *input, err)
		}

		eng := engine.New(engine.Config{
			Provider: &health.StaticProvider{
				Snapshot: in.Snapshot,
				Trends:   in.Trends,
				Risk:     in.RiskHistory,
			},
		})
		a, err := eng.RunAssessment(context.Background())
		if err != nil {
			log.Fatalf("assessment failed: %v", err)
		}
		out.Assessment = a
		if f, ok := eng.Forecast(); ok {
			out.Forecast = f
		}

	default:
		log.Fatal("either -file or -addr is required")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
}
