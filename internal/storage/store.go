package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/earther/internal/provider"
)

// ErrNoKeyframe indicates the archive lacks the requested time step or level.
var ErrNoKeyframe = errors.New("storage: keyframe not archived")

// ErrCorrupt indicates keyframes.csv disagrees with metadata.json.
var ErrCorrupt = errors.New("storage: archive corrupt")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ArchiveMetadata struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Model     string    `json:"model"`
	VarName   string    `json:"var_name"`
	Level     int       `json:"level"`
	Units     string    `json:"units"`
	Timestamp time.Time `json:"timestamp"`
	Times     []float64 `json:"times"`
	Cells     int       `json:"cells"`
	Missing   []int     `json:"missing,omitempty"`
}

// Keyframes is the archived data of one variable at one level. A nil
// entry is a time step that could not be fetched.
type Keyframes struct {
	Times []float64
	Data  [][]float64
}

func archiveID(meta ArchiveMetadata) string {
	name := fmt.Sprintf("%s_%s_%s", meta.RunID, meta.Model, meta.VarName)
	if meta.Level >= 0 {
		name += fmt.Sprintf("_L%d", meta.Level)
	}
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(name, "/", "-"), time.Now().Unix())
}

// Save writes metadata.json and keyframes.csv for one variable.
func (s *Store) Save(meta ArchiveMetadata, kf Keyframes) (string, error) {
	meta.ID = archiveID(meta)
	meta.Timestamp = time.Now()
	meta.Times = kf.Times
	meta.Missing = nil
	for i, row := range kf.Data {
		if row == nil {
			meta.Missing = append(meta.Missing, i)
		} else if meta.Cells == 0 {
			meta.Cells = len(row)
		}
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

	csvFile, err := os.Create(filepath.Join(runDir, "keyframes.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := []string{"time"}
	for i := 0; i < meta.Cells; i++ {
		header = append(header, fmt.Sprintf("c%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, row := range kf.Data {
		if row == nil {
			continue
		}
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.FormatFloat(kf.Times[i], 'f', -1, 64))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func (s *Store) List() ([]ArchiveMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ArchiveMetadata{}, nil
		}
		return nil, err
	}

	archives := make([]ArchiveMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		archives = append(archives, *meta)
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].Timestamp.After(archives[j].Timestamp) })

	return archives, nil
}

func (s *Store) Load(id string) (*ArchiveMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta ArchiveMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadKeyframes reads the archived keyframes back, restoring gaps as nil
// rows in their original positions.
func (s *Store) LoadKeyframes(id string) (*Keyframes, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, "keyframes.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	kf := &Keyframes{Times: meta.Times, Data: make([][]float64, len(meta.Times))}
	slot := make(map[float64]int, len(meta.Times))
	for i, t := range meta.Times {
		slot[t] = i
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", id, err)
		}
		if len(rec) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("archive %s: time %q: %w", id, rec[0], err)
		}
		i, ok := slot[t]
		if !ok {
			return nil, fmt.Errorf("archive %s: %w: time %v not in metadata", id, ErrCorrupt, t)
		}
		row := make([]float64, 0, len(rec)-1)
		for col, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("archive %s: time %v cell %d: %w", id, t, col, err)
			}
			row = append(row, v)
		}
		kf.Data[i] = row
	}

	return kf, nil
}

// Archive serves archived keyframes through the same interface as the
// remote data API so a variable can be replayed offline.
type Archive struct {
	Meta ArchiveMetadata
	kf   *Keyframes
}

func (s *Store) Open(id string) (*Archive, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	kf, err := s.LoadKeyframes(id)
	if err != nil {
		return nil, err
	}
	return &Archive{Meta: *meta, kf: kf}, nil
}

func (a *Archive) Info(ctx context.Context, v provider.Variable) (*provider.VariableInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := &provider.VariableInfo{}
	info.Time.Values = append([]float64(nil), a.kf.Times...)
	return info, nil
}

func (a *Archive) Data(ctx context.Context, q provider.DataQuery) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Level != a.Meta.Level {
		return nil, fmt.Errorf("%w: level %d (archived %d)", ErrNoKeyframe, q.Level, a.Meta.Level)
	}
	for i, t := range a.kf.Times {
		if t == q.Time && a.kf.Data[i] != nil {
			return a.kf.Data[i], nil
		}
	}
	return nil, fmt.Errorf("%w: time %v", ErrNoKeyframe, q.Time)
}

// Series returns the value of one cell across all archived time steps.
// Missing steps are skipped.
func (a *Archive) Series(cell int) ([]float64, []float64) {
	var times, values []float64
	for i, row := range a.kf.Data {
		if row == nil || cell < 0 || cell >= len(row) {
			continue
		}
		times = append(times, a.kf.Times[i])
		values = append(values, row[cell])
	}
	return times, values
}
