// BarCut — 1D Cutting Stock Optimizer
//
// Reads profile cut lists (length, quantity, work order) and a stock bar
// catalogue from a JSON or YAML request file, packs the pieces onto bars
// with the selected algorithm, and writes the cutting plan as JSON.
//
// Build:
//   go build -o barcut ./cmd/barcut
//
// Usage:
//   barcut -request job.json
//   barcut -request job.yaml -algorithm genetic -seed 42 -out plan.json

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

func main() {
	var (
		requestPath   = flag.String("request", "", "path to a JSON or YAML request file (required)")
		cataloguePath = flag.String("catalogue", "", "optional catalogue file serving items and stock lengths omitted from the request")
		algorithm     = flag.String("algorithm", "", "override the request's algorithm (ffd, bfd, nfd, wfd, genetic, simulated-annealing, branch-and-bound, pooling)")
		seed          = flag.Int64("seed", 1, "PRNG seed; the same seed reproduces the same plan")
		outPath       = flag.String("out", "", "write the result to this file instead of stdout")
		verbose       = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "barcut: -request is required")
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*requestPath, *cataloguePath, *algorithm, *seed, *outPath, logger); err != nil {
		logger.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(requestPath, cataloguePath, algorithm string, seed int64, outPath string, logger *slog.Logger) error {
	req, err := project.LoadRequest(requestPath)
	if err != nil {
		return err
	}
	if algorithm != "" {
		req.Algorithm = model.Algorithm(algorithm)
	}
	if req.Algorithm == "" {
		req.Algorithm = model.AlgorithmFFD
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithSeed(seed),
	}
	if cataloguePath != "" {
		opts = append(opts, engine.WithProvider(project.NewFileProvider(cataloguePath)))
	}
	svc := engine.NewService(opts...)

	result, err := svc.Optimize(context.Background(), req)
	if err != nil {
		return err
	}

	if outPath != "" {
		return project.SaveResult(outPath, result)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
