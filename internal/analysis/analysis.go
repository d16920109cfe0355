// Package analysis aggregates per-seed result logs into mean and standard
// deviation curves per environment and plots them.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Row is one result log line tagged with the environment it came from.
type Row struct {
	EnvID       string
	Seed        int64
	Generation  int
	BestFitness float64
}

// Point is the aggregate of one generation across seeds.
type Point struct {
	Generation int
	Mean       float64
	Std        float64
	Count      int
}

// Curve is the aggregated progress of one environment.
type Curve struct {
	EnvID  string
	Points []Point
}

// Load reads every <dir>/<env>/*.csv result log. The environment id is the
// name of the folder holding the file. Files that cannot be parsed are skipped
// with a warning.
func Load(dir string, log *slog.Logger) ([]Row, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*", "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var rows []Row
	for _, path := range paths {
		envID := filepath.Base(filepath.Dir(path))
		fileRows, err := readLog(path, envID)
		if err != nil {
			log.Warn("skipping result log", "path", path, "err", err)
			continue
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func readLog(path, envID string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"seed", "generation", "best_fitness"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		seed, err := strconv.ParseInt(rec[col["seed"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		gen, err := strconv.Atoi(rec[col["generation"]])
		if err != nil {
			return nil, fmt.Errorf("generation: %w", err)
		}
		best, err := strconv.ParseFloat(rec[col["best_fitness"]], 64)
		if err != nil {
			return nil, fmt.Errorf("best_fitness: %w", err)
		}
		rows = append(rows, Row{EnvID: envID, Seed: seed, Generation: gen, BestFitness: best})
	}
	return rows, nil
}

// Aggregate groups rows by environment and generation and computes the mean
// and sample standard deviation of best fitness. A generation seen by a
// single seed has a standard deviation of 0. Curves are sorted by env id and
// points by generation.
func Aggregate(rows []Row) []Curve {
	groups := map[string]map[int][]float64{}
	for _, r := range rows {
		byGen, ok := groups[r.EnvID]
		if !ok {
			byGen = map[int][]float64{}
			groups[r.EnvID] = byGen
		}
		byGen[r.Generation] = append(byGen[r.Generation], r.BestFitness)
	}

	curves := make([]Curve, 0, len(groups))
	for envID, byGen := range groups {
		c := Curve{EnvID: envID}
		for gen, vals := range byGen {
			p := Point{Generation: gen, Count: len(vals)}
			if len(vals) > 1 {
				p.Mean, p.Std = stat.MeanStdDev(vals, nil)
			} else {
				p.Mean = vals[0]
			}
			c.Points = append(c.Points, p)
		}
		sort.Slice(c.Points, func(i, j int) bool { return c.Points[i].Generation < c.Points[j].Generation })
		curves = append(curves, c)
	}
	sort.Slice(curves, func(i, j int) bool { return curves[i].EnvID < curves[j].EnvID })
	return curves
}

// WriteCSV writes a curve as generation,mean,std rows.
func WriteCSV(path string, c Curve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"env_id", "generation", "mean", "std"}); err != nil {
		return err
	}
	for _, p := range c.Points {
		row := []string{
			c.EnvID,
			strconv.Itoa(p.Generation),
			strconv.FormatFloat(p.Mean, 'g', -1, 64),
			strconv.FormatFloat(p.Std, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Report holds the files written for one environment.
type Report struct {
	EnvID     string
	PlotPath  string
	StatsPath string
}

// Run loads inputDir, aggregates it and writes <outputDir>/<env>/<env>.png and
// <outputDir>/<env>/<env>_stats.csv for every environment found.
func Run(inputDir, outputDir string, log *slog.Logger) ([]Report, error) {
	rows, err := Load(inputDir, log)
	if err != nil {
		return nil, err
	}

	var reports []Report
	for _, c := range Aggregate(rows) {
		envOut := filepath.Join(outputDir, c.EnvID)
		rep := Report{
			EnvID:     c.EnvID,
			PlotPath:  filepath.Join(envOut, c.EnvID+".png"),
			StatsPath: filepath.Join(envOut, c.EnvID+"_stats.csv"),
		}
		if err := WriteCSV(rep.StatsPath, c); err != nil {
			return reports, fmt.Errorf("write stats for %s: %w", c.EnvID, err)
		}
		if err := Plot(rep.PlotPath, c); err != nil {
			return reports, fmt.Errorf("plot %s: %w", c.EnvID, err)
		}
		log.Info("saved results", "env", c.EnvID, "plot", rep.PlotPath, "stats", rep.StatsPath)
		reports = append(reports, rep)
	}
	return reports, nil
}
