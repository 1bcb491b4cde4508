package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_EachIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	seen := make([]int32, 1000)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestForChunks_CoversRange(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"empty", 0, DefaultConfig()},
		{"small falls back to one chunk", 10, DefaultConfig()},
		{"parallel", 10_000, Config{Enabled: true, NumWorkers: 3, MinChunkSize: 100}},
		{"disabled", 10_000, Config{Enabled: false, NumWorkers: 8, MinChunkSize: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total, chunks int64
			ForChunks(tt.n, func(start, end int) {
				if start >= end {
					t.Errorf("empty chunk [%d, %d)", start, end)
				}
				atomic.AddInt64(&total, int64(end-start))
				atomic.AddInt64(&chunks, 1)
			}, tt.cfg)

			if total != int64(tt.n) {
				t.Errorf("covered %d items, want %d", total, tt.n)
			}
			if !tt.cfg.Enabled && chunks > 1 {
				t.Errorf("disabled config ran %d chunks", chunks)
			}
		})
	}
}

func TestElementwiseConfig(t *testing.T) {
	if cfg := ElementwiseConfig(); cfg.MinChunkSize <= DefaultConfig().MinChunkSize {
		t.Errorf("elementwise chunk %d should exceed row chunk %d", cfg.MinChunkSize, DefaultConfig().MinChunkSize)
	}
}
