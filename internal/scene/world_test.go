package scene

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/earther/internal/config"
	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/provider"
	"github.com/san-kum/earther/internal/shell"
)

type fakeFetcher struct {
	mu     sync.Mutex
	times  []float64
	cells  int
	levels []int
}

func (f *fakeFetcher) Info(ctx context.Context, v provider.Variable) (*provider.VariableInfo, error) {
	info := &provider.VariableInfo{}
	info.Time.Values = f.times
	return info, nil
}

func (f *fakeFetcher) Data(ctx context.Context, q provider.DataQuery) ([]float64, error) {
	f.mu.Lock()
	f.levels = append(f.levels, q.Level)
	f.mu.Unlock()
	out := make([]float64, f.cells)
	for i := range out {
		out[i] = q.Time + float64(i)
	}
	return out, nil
}

func testGrid(t *testing.T, n int) *geo.Grid {
	t.Helper()
	cells := make([]geo.Cell, n)
	for i := range cells {
		lon := float64(i) * 10
		cells[i] = geo.Cell{
			GridIndex: i,
			Vertices: [][2]float64{
				{lon, 0}, {lon + 2, 1}, {lon + 4, 0}, {lon + 4, -2}, {lon + 2, -3}, {lon, -2},
			},
		}
	}
	g, err := geo.NewGrid(cells)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func waitAnimating(t *testing.T, w *World) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	now := time.Now()
	for time.Now().Before(deadline) {
		now = now.Add(10 * time.Millisecond)
		w.Tick(now)
		all := len(w.Shells) > 0
		for _, s := range w.Shells {
			if s.State() != shell.Animating {
				all = false
			}
		}
		if all {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("shells never started animating")
}

func TestLoadFlatVariable(t *testing.T) {
	w, err := NewWorld(testGrid(t, 4), DefaultOptions())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	f := &fakeFetcher{times: []float64{31, 59, 90}, cells: 4}
	desc := config.VariableDesc{Model: "cam", VarName: "TS", Type: "flat", Display: "bimodal"}

	if err := w.LoadVariable(context.Background(), f, "i-1", desc); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(w.Shells) != 1 {
		t.Fatalf("expected 1 shell, got %d", len(w.Shells))
	}
	if w.Primary().Variable().Level != shell.FlatLevel {
		t.Errorf("expected flat level, got %d", w.Primary().Variable().Level)
	}

	waitAnimating(t, w)
	if got := w.Primary().Store().LoadedCount(); got != 3 {
		t.Errorf("expected 3 keyframes, got %d", got)
	}
	w.Discard()
}

func TestLoad3DVariable(t *testing.T) {
	w, err := NewWorld(testGrid(t, 4), DefaultOptions())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	f := &fakeFetcher{times: []float64{31, 59}, cells: 4}
	desc := config.VariableDesc{Model: "cam", VarName: "T", Type: "3d", Display: "bimodal", Height: "1.01"}

	if err := w.LoadVariable(context.Background(), f, "i-1", desc); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(w.Shells) != len(config.Levels) {
		t.Fatalf("expected %d shells, got %d", len(config.Levels), len(w.Shells))
	}
	for i, s := range w.Shells {
		if s.Variable().Level != config.Levels[i] {
			t.Errorf("shell %d: expected level %d, got %d", i, config.Levels[i], s.Variable().Level)
		}
	}
	if w.Shell("cam/T@6") == nil {
		t.Error("expected shell cam/T@6")
	}

	waitAnimating(t, w)
	w.Discard()
}

func TestLoadVariableReplacesShells(t *testing.T) {
	w, err := NewWorld(testGrid(t, 4), DefaultOptions())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	f := &fakeFetcher{times: []float64{31, 59}, cells: 4}
	ctx := context.Background()

	if err := w.LoadVariable(ctx, f, "i-1", config.VariableDesc{Model: "cam", VarName: "TS", Type: "flat"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	old := w.Primary()

	if err := w.LoadVariable(ctx, f, "i-1", config.VariableDesc{Model: "cam", VarName: "PRECT", Type: "flat"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if old.State() != shell.Discarded {
		t.Errorf("expected old shell discarded, got %s", old.State())
	}
	if w.Primary().Variable().VarName != "PRECT" {
		t.Errorf("expected PRECT, got %s", w.Primary().Variable().VarName)
	}
	w.Discard()
}

func TestLoadBadColor(t *testing.T) {
	w, err := NewWorld(testGrid(t, 2), DefaultOptions())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	desc := config.VariableDesc{Model: "cam", VarName: "X", Type: "flat", Color: "not-a-color"}
	if err := w.LoadVariable(context.Background(), &fakeFetcher{}, "i-1", desc); err == nil {
		t.Error("expected error for bad color")
	}
}

func TestRotation(t *testing.T) {
	w, err := NewWorld(testGrid(t, 2), DefaultOptions())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	t0 := time.Unix(0, 0)
	w.Tick(t0)
	if w.Rotation != 0 {
		t.Errorf("expected no rotation on first tick, got %f", w.Rotation)
	}

	w.Tick(t0.Add(75 * time.Second))
	if math.Abs(w.Rotation-math.Pi/2) > 1e-9 {
		t.Errorf("expected quarter turn, got %f", w.Rotation)
	}

	w.SetPaused(true)
	w.Tick(t0.Add(150 * time.Second))
	if math.Abs(w.Rotation-math.Pi/2) > 1e-9 {
		t.Errorf("expected rotation frozen while paused, got %f", w.Rotation)
	}
}

func TestEntranceScale(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{5 * time.Second, 0},
		{5500 * time.Millisecond, 0.0625},
		{6 * time.Second, 0.5},
		{6500 * time.Millisecond, 0.9375},
		{7 * time.Second, 1},
		{time.Minute, 1},
	}

	for _, tt := range tests {
		got := EntranceScale(tt.elapsed)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EntranceScale(%v) = %f, want %f", tt.elapsed, got, tt.want)
		}
	}
}
