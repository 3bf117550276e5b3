package shell_test

import (
	"context"
	"sync"

	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/provider"
	"github.com/san-kum/earther/internal/shell"
)

func newGrid(n int) *geo.Grid {
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
		panic(err)
	}
	return g
}

func filled(n int, v float64) shell.Snapshot {
	s := make(shell.Snapshot, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// stubFetcher serves a fixed time axis and a constant snapshot per time.
// When block is set, Data waits for cancellation.
type stubFetcher struct {
	times []float64
	cells int
	block bool

	mu        sync.Mutex
	started   int
	cancelled int
	failAt    map[float64]error
}

func (f *stubFetcher) Info(ctx context.Context, v provider.Variable) (*provider.VariableInfo, error) {
	info := &provider.VariableInfo{}
	info.Time.Values = f.times
	return info, nil
}

func (f *stubFetcher) Data(ctx context.Context, q provider.DataQuery) ([]float64, error) {
	if f.block {
		f.mu.Lock()
		f.started++
		f.mu.Unlock()
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		return nil, ctx.Err()
	}
	if err := f.failAt[q.Time]; err != nil {
		return nil, err
	}
	return filled(f.cells, q.Time), nil
}

func (f *stubFetcher) Started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *stubFetcher) Cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}
