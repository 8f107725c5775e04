package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/rigidbody"
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
	ID               string    `json:"id"`
	Scene            string    `json:"scene"`
	Kernel           string    `json:"kernel"`
	Timestamp        time.Time `json:"timestamp"`
	Dt               float64   `json:"dt"`
	Steps            int       `json:"steps"`
	Entities         int       `json:"entities"`
	Conversions      int       `json:"conversions"`
	TransitionErrors int       `json:"transition_errors"`
}

// Sample is the state of one registered object after one tick.
type Sample struct {
	Step     int            `json:"step"`
	Time     float64        `json:"time"`
	ID       uint32         `json:"id"`
	Type     rigidbody.Type `json:"type"`
	Mass     float64        `json:"mass"`
	Position mgl64.Vec3     `json:"position"`
	Rotation mgl64.Vec3     `json:"rotation"`
	Velocity mgl64.Vec3     `json:"velocity"`
}

var sampleHeader = []string{
	"step", "time", "id", "type", "mass",
	"px", "py", "pz", "rx", "ry", "rz", "vx", "vy", "vz",
}

// Save writes metadata.json and samples.csv into a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Scene, meta.Timestamp.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func WriteCSV(out io.Writer, samples []Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}

	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Step),
			formatFloat(smp.Time),
			strconv.FormatUint(uint64(smp.ID), 10),
			smp.Type.String(),
			formatFloat(smp.Mass),
		}
		for _, v := range []mgl64.Vec3{smp.Position, smp.Rotation, smp.Velocity} {
			row = append(row, formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns the metadata of every stored run, newest first.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		smp, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("samples.csv row %d: %w", i+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(record []string) (Sample, error) {
	var smp Sample
	var err error

	if smp.Step, err = strconv.Atoi(record[0]); err != nil {
		return smp, err
	}
	if smp.Time, err = strconv.ParseFloat(record[1], 64); err != nil {
		return smp, err
	}
	id, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return smp, err
	}
	smp.ID = uint32(id)
	if smp.Type, err = rigidbody.ParseType(record[3]); err != nil {
		return smp, err
	}
	if smp.Mass, err = strconv.ParseFloat(record[4], 64); err != nil {
		return smp, err
	}

	vals := make([]float64, 9)
	for j := range vals {
		if vals[j], err = strconv.ParseFloat(record[5+j], 64); err != nil {
			return smp, err
		}
	}
	smp.Position = mgl64.Vec3{vals[0], vals[1], vals[2]}
	smp.Rotation = mgl64.Vec3{vals[3], vals[4], vals[5]}
	smp.Velocity = mgl64.Vec3{vals[6], vals[7], vals[8]}
	return smp, nil
}

// Series extracts one position or velocity axis of entity id over time.
// axis is one of px, py, pz, vx, vy, vz.
func Series(samples []Sample, id uint32, axis string) ([]float64, error) {
	pick, ok := axes[axis]
	if !ok {
		return nil, fmt.Errorf("unknown axis: %s", axis)
	}
	out := make([]float64, 0)
	for _, smp := range samples {
		if smp.ID == id {
			out = append(out, pick(smp))
		}
	}
	return out, nil
}

var axes = map[string]func(Sample) float64{
	"px": func(s Sample) float64 { return s.Position.X() },
	"py": func(s Sample) float64 { return s.Position.Y() },
	"pz": func(s Sample) float64 { return s.Position.Z() },
	"vx": func(s Sample) float64 { return s.Velocity.X() },
	"vy": func(s Sample) float64 { return s.Velocity.Y() },
	"vz": func(s Sample) float64 { return s.Velocity.Z() },
}

type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Samples []Sample    `json:"samples"`
}

func ExportJSON(out io.Writer, meta RunMetadata, samples []Sample) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: meta, Samples: samples})
}
