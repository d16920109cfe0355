package logging

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"neuroevo/internal/trainer"
)

// ResultHeader is the header row of every CSV result log.
var ResultHeader = []string{"seed", "generation", "best_fitness"}

// CSVLog writes one CSV file per (environment, seed) run at
// <dir>/<env>/seed<seed>.csv. Rows are flushed as they are written.
type CSVLog struct {
	dir string

	mu    sync.Mutex
	files map[runKey]*csvFile
}

type runKey struct {
	env  string
	seed int64
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// NewCSVLog creates a result log rooted at dir.
func NewCSVLog(dir string) *CSVLog {
	return &CSVLog{dir: dir, files: make(map[runKey]*csvFile)}
}

// Path returns the file a run's rows are written to.
func (l *CSVLog) Path(envID string, seed int64) string {
	return filepath.Join(l.dir, envID, fmt.Sprintf("seed%d.csv", seed))
}

// Record appends a generation row, creating the file and its header on the
// run's first record.
func (l *CSVLog) Record(_ context.Context, rec trainer.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := runKey{rec.EnvID, rec.Seed}
	cf, ok := l.files[key]
	if !ok {
		var err error
		cf, err = l.open(rec.EnvID, rec.Seed)
		if err != nil {
			return err
		}
		l.files[key] = cf
	}

	row := []string{
		strconv.FormatInt(rec.Seed, 10),
		strconv.Itoa(rec.Generation),
		strconv.FormatFloat(rec.BestFitness, 'g', -1, 64),
	}
	if err := cf.w.Write(row); err != nil {
		return err
	}
	cf.w.Flush()
	return cf.w.Error()
}

// Finish closes the run's file.
func (l *CSVLog) Finish(_ context.Context, res trainer.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := runKey{res.EnvID, res.Seed}
	cf, ok := l.files[key]
	if !ok {
		return nil
	}
	delete(l.files, key)
	return cf.close()
}

// Close closes every file still open, including those of aborted runs.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for key, cf := range l.files {
		errs = append(errs, cf.close())
		delete(l.files, key)
	}
	return errors.Join(errs...)
}

func (l *CSVLog) open(envID string, seed int64) (*csvFile, error) {
	path := l.Path(envID, seed)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(ResultHeader); err != nil {
		f.Close()
		return nil, err
	}
	return &csvFile{f: f, w: w}, nil
}

func (cf *csvFile) close() error {
	cf.w.Flush()
	if err := cf.w.Error(); err != nil {
		cf.f.Close()
		return err
	}
	return cf.f.Close()
}
