package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	snapshotFile = "particles.msgpack"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
	Dt         float64            `json:"dt"`
	Ticks      int                `json:"ticks"`
	Substeps   int                `json:"substeps"`
	BandRows   int                `json:"band_rows"`
	Workers    int                `json:"workers"`
	Emitter    string             `json:"emitter"`
	Image      string             `json:"image,omitempty"`
	FullAt     int                `json:"full_at"`
	Population int                `json:"population"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the per-tick series
// and, when snap is not nil, the final particle snapshot.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result, snap *Snapshot) (string, error) {
	if name == "" {
		name = "run"
	}
	runID, runDir, err := s.createRunDir(name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: time.Now(),
		Seed:      cfg.Seed,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Dt:        cfg.Dt,
		Ticks:     result.TicksTaken,
		Substeps:  cfg.Substeps,
		BandRows:  cfg.BandRows,
		Workers:   cfg.Workers,
		Emitter:   cfg.Emitter,
		Image:     cfg.Image,
		FullAt:    result.FullAt,
		Metrics:   result.Metrics,
	}
	if n := len(result.Samples); n > 0 {
		meta.Population = result.Samples[n-1].Population
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteSeriesCSV(csvFile, result.Samples); err != nil {
		return "", err
	}

	if snap != nil {
		if err := snap.WriteFile(filepath.Join(runDir, snapshotFile)); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) createRunDir(name string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSeriesCSV writes one row per sample under a header row.
func WriteSeriesCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"tick", "time", "population", "kinetic_energy", "overflow"}); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Tick),
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.Itoa(smp.Population),
			strconv.FormatFloat(smp.KineticEnergy, 'g', -1, 64),
			strconv.Itoa(smp.Overflow),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := s.readFile(runID, metadataFile)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) readFile(runID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return data, err
}

// LoadSeries reads the per-tick samples of a run. Malformed rows are
// skipped.
func (s *Store) LoadSeries(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 5 {
			continue
		}
		var smp sim.Sample
		var errs [5]error
		smp.Tick, errs[0] = strconv.Atoi(record[0])
		smp.Time, errs[1] = strconv.ParseFloat(record[1], 64)
		smp.Population, errs[2] = strconv.Atoi(record[2])
		smp.KineticEnergy, errs[3] = strconv.ParseFloat(record[3], 64)
		smp.Overflow, errs[4] = strconv.Atoi(record[4])
		if errors.Join(errs[:]...) != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

// LoadSnapshot reads the final particle snapshot of a run.
func (s *Store) LoadSnapshot(runID string) (*Snapshot, error) {
	data, err := s.readFile(runID, snapshotFile)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// SeriesPath returns the on-disk location of a run's series file.
func (s *Store) SeriesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, seriesFile)
}
