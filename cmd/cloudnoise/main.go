// Command cloudnoise runs the outlier removal stage over a point cloud
// text file, writing the reclassified cloud back out. Optionally records
// the run summary to a SQLite database and renders a debug scatter chart.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/cloudnoise/internal/cloud"
	"github.com/banshee-data/cloudnoise/internal/config"
	"github.com/banshee-data/cloudnoise/internal/monitoring"
	"github.com/banshee-data/cloudnoise/internal/noise"
	"github.com/banshee-data/cloudnoise/internal/noisedb"
)

var (
	inputPath  = flag.String("input", "", "Input point cloud file (x y z [intensity [class]] per line)")
	outputPath = flag.String("output", "", "Output point cloud file (default: overwrite input)")
	configPath = flag.String("config", "", "Optional tuning JSON file")

	method     = flag.String("method", "", "Detection method: statistical or radius")
	minK       = flag.Int("min-k", -1, "Minimum number of neighbors in radius (radius method)")
	radius     = flag.Float64("radius", 0, "Neighborhood radius in meters (radius method)")
	meanK      = flag.Int("mean-k", 0, "Mean number of neighbors (statistical method)")
	multiplier = flag.Float64("multiplier", -1, "Standard deviation threshold (statistical method)")
	noiseClass = flag.Int("class", -1, "Classification code for noise points")
	threads    = flag.Int("threads", 0, "Number of worker threads")

	dbPath        = flag.String("db", "", "Optional SQLite database to record the run")
	migrationsDir = flag.String("migrations", "migrations", "Migrations directory for -db")
	chartPath     = flag.String("chart", "", "Optional HTML debug chart of the partition")
	verbose       = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*verbose)

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cloudnoise -input points.xyz [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	params, err := buildParams()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	view, err := cloud.ReadASC(in)
	in.Close()
	if err != nil {
		log.Fatalf("read %s: %v", *inputPath, err)
	}
	log.Printf("loaded %d points from %s", view.Len(), *inputPath)

	filter := noise.New(params)
	report := filter.Run(view)
	log.Printf("run %s: method=%v inliers=%d outliers=%d applied=%v in %v",
		report.RunID, report.Method, report.InlierCount, report.OutlierCount,
		report.Applied, report.Duration)

	outPath := *outputPath
	if outPath == "" {
		outPath = *inputPath
	}
	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	if err := cloud.WriteASC(out, view); err != nil {
		out.Close()
		log.Fatalf("write %s: %v", outPath, err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("close %s: %v", outPath, err)
	}

	if *chartPath != "" {
		if err := writeChart(view, report); err != nil {
			log.Fatalf("chart: %v", err)
		}
		log.Printf("wrote partition chart to %s", *chartPath)
	}

	if *dbPath != "" {
		if err := recordRun(params, report); err != nil {
			log.Fatalf("record run: %v", err)
		}
		log.Printf("recorded run %s in %s", report.RunID, *dbPath)
	}
}

// buildParams layers defaults, the optional tuning file, and explicit
// flag overrides, in that order.
func buildParams() (noise.Params, error) {
	params := noise.DefaultParams()

	if *configPath != "" {
		tuning, err := config.LoadFilterTuning(*configPath)
		if err != nil {
			return params, err
		}
		params = tuning.Apply(params)
	}

	if *method != "" {
		m, err := noise.ParseMethod(*method)
		if err != nil {
			return params, err
		}
		params.Method = m
	}
	if *minK >= 0 {
		params.MinK = *minK
	}
	if *radius > 0 {
		params.Radius = *radius
	}
	if *meanK > 0 {
		params.MeanK = *meanK
	}
	if *multiplier >= 0 {
		params.Multiplier = *multiplier
	}
	if *noiseClass >= 0 {
		if *noiseClass > 255 {
			return params, fmt.Errorf("class must be in 0..255, got %d", *noiseClass)
		}
		params.Class = uint8(*noiseClass)
	}
	if *threads > 0 {
		params.Threads = *threads
	}
	return params, nil
}

func writeChart(view *cloud.Cloud, report *noise.Report) error {
	f, err := os.Create(*chartPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return noise.WriteChart(f, view, report.Partition)
}

func recordRun(params noise.Params, report *noise.Report) error {
	db, err := noisedb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateUp(*migrationsDir); err != nil {
		return err
	}

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"method":     params.Method.String(),
		"min_k":      params.MinK,
		"radius":     params.Radius,
		"mean_k":     params.MeanK,
		"multiplier": params.Multiplier,
		"class":      params.Class,
		"threads":    params.Threads,
	})
	if err != nil {
		return err
	}

	store := noisedb.NewRunStore(db)
	return store.Insert(&noisedb.RunRecord{
		RunID:        report.RunID,
		Method:       report.Method.String(),
		ParamsJSON:   paramsJSON,
		PointCount:   report.PointCount,
		InlierCount:  report.InlierCount,
		OutlierCount: report.OutlierCount,
		Threshold:    report.Threshold,
		Applied:      report.Applied,
		DurationNs:   report.Duration.Nanoseconds(),
	})
}
