// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command profile measures key generation and blind-rotation performance.
//
// Usage:
//
//	go build -o profile ./cmd/profile
//	./profile -cpu=cpu.prof -mem=mem.prof -iterations=100 -html=latency.html
//
// Analyze profiles:
//
//	go tool pprof -http=:8080 cpu.prof
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/montanaflynn/stats"

	"github.com/luxfi/ginx"
)

var (
	cpuProfile = flag.String("cpu", "", "write cpu profile to file")
	memProfile = flag.String("mem", "", "write memory profile to file")
	iterations = flag.Int("iterations", 100, "number of iterations for each operation")
	operation  = flag.String("op", "all", "operation to profile: all, keygen, rotate")
	paramSet   = flag.String("params", "PN10QP27", "parameter set (PN10QP27 or PN11QP58)")
	htmlOut    = flag.String("html", "", "write latency histograms to HTML file")
)

func main() {
	flag.Parse()

	profiler := ginx.NewProfiler(ginx.ProfileConfig{
		CPUProfile: *cpuProfile,
		MemProfile: *memProfile,
	})
	if err := profiler.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start profiler: %v\n", err)
		os.Exit(1)
	}
	defer profiler.Stop()

	var lit ginx.ParametersLiteral
	switch *paramSet {
	case "PN10QP27":
		lit = ginx.PN10QP27
	case "PN11QP58":
		lit = ginx.PN11QP58
	default:
		fmt.Fprintf(os.Stderr, "Unknown parameter set: %s\n", *paramSet)
		os.Exit(1)
	}

	params, err := ginx.NewParametersFromLiteral(lit)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Running %d iterations of '%s' (N=%d, digits=%d)\n",
		*iterations, *operation, params.N(), params.DigitsG())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	samples := make(map[string][]float64)

	switch *operation {
	case "all":
		samples["keygen_ms"] = profileKeyGen(params)
		samples["rotate_ms"] = profileRotate(params)
	case "keygen":
		samples["keygen_ms"] = profileKeyGen(params)
	case "rotate":
		samples["rotate_ms"] = profileRotate(params)
	default:
		fmt.Fprintf(os.Stderr, "Unknown operation: %s\n", *operation)
		os.Exit(1)
	}

	for name, vals := range samples {
		printSummary(name, vals)
	}

	if *htmlOut != "" {
		if err := renderHistograms(*htmlOut, samples); err != nil {
			log.Fatalf("render html: %v", err)
		}
		fmt.Println("Histogram page:", *htmlOut)
	}

	ginx.PrintMemStats()
}

func profileKeyGen(params ginx.Parameters) []float64 {
	fmt.Println("\n=== Bootstrapping Key Generation ===")

	kg := ginx.NewKeyGenerator(params)
	skNTT := kg.GenRingSecretKey()
	skLWE := kg.GenLWEKey()

	// Key generation is expensive; cap the iteration count.
	iter := *iterations / 10
	if iter < 1 {
		iter = 1
	}

	durations := make([]float64, iter)
	timer := ginx.NewTimer(fmt.Sprintf("AccKey generation (%d iter)", iter))
	for i := 0; i < iter; i++ {
		start := time.Now()
		if _, err := kg.GenAccKey(skNTT, skLWE); err != nil {
			panic(err)
		}
		durations[i] = float64(time.Since(start).Microseconds()) / 1000.0
	}
	d := timer.Stop()
	fmt.Printf("  Average: %v/op\n", d/time.Duration(iter))

	return durations
}

func profileRotate(params ginx.Parameters) []float64 {
	fmt.Println("\n=== Blind Rotation ===")

	kg := ginx.NewKeyGenerator(params)
	skNTT := kg.GenRingSecretKey()
	skLWE := kg.GenLWEKey()

	ak, err := kg.GenAccKey(skNTT, skLWE)
	if err != nil {
		panic(err)
	}

	eval := ginx.NewEvaluator(params)

	testVector := params.RingQ().NewPoly()
	for j := 0; j < params.N(); j++ {
		testVector.Coeffs[0][j] = uint64(j) % params.QLWE()
	}

	mask := make([]uint64, params.NLWE())
	for i := range mask {
		mask[i] = uint64(i*7+3) % params.QLWE()
	}

	durations := make([]float64, *iterations)
	timer := ginx.NewTimer(fmt.Sprintf("BlindRotate (%d iter)", *iterations))
	for i := 0; i < *iterations; i++ {
		acc := ginx.NewAccumulator(params, testVector)
		start := time.Now()
		if err := eval.BlindRotate(ak, mask, acc); err != nil {
			panic(err)
		}
		durations[i] = float64(time.Since(start).Microseconds()) / 1000.0
	}
	d := timer.Stop()
	fmt.Printf("  Average: %v/op\n", d/time.Duration(*iterations))
	fmt.Printf("  Per coefficient: %v\n", d/time.Duration(*iterations*params.NLWE()))

	return durations
}

func printSummary(name string, values []float64) {
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	stddev, _ := stats.StandardDeviation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	fmt.Printf("\n%s: n=%d mean=%.3f median=%.3f std=%.3f min=%.3f max=%.3f\n",
		name, len(values), mean, median, stddev, min, max)
}

func renderHistograms(path string, samples map[string][]float64) error {
	page := components.NewPage()

	for name, values := range samples {
		if len(values) == 0 {
			continue
		}
		page.AddCharts(newHistogramChart(name, values))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func newHistogramChart(title string, values []float64) *charts.Bar {
	nbins := 20
	if len(values) < nbins {
		nbins = len(values)
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	width := (max - min) / float64(nbins)
	if width == 0 {
		width = 1
	}

	counts := make([]int, nbins)
	for _, v := range values {
		bin := int((v - min) / width)
		if bin >= nbins {
			bin = nbins - 1
		}
		counts[bin]++
	}

	xLabels := make([]string, nbins)
	items := make([]opts.BarData, nbins)
	for i := 0; i < nbins; i++ {
		xLabels[i] = fmt.Sprintf("%.2f", min+(float64(i)+0.5)*width)
		items[i] = opts.BarData{Value: counts[i]}
	}

	mean, _ := stats.Mean(values)
	stddev, _ := stats.StandardDeviation(values)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("n=%d, mean=%.3f ms, std=%.3f ms", len(values), mean, stddev),
		}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("count", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}
