package health

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/bytedance/sonic"
)

// QuantileTracker keeps an approximate latency distribution for one node.
type QuantileTracker struct {
	mu     sync.RWMutex
	sketch *ddsketch.DDSketch
}

func NewQuantileTracker() *QuantileTracker {
	// 1% relative accuracy
	sketch, _ := ddsketch.NewDefaultDDSketch(0.01)
	return &QuantileTracker{
		sketch: sketch,
	}
}

func (q *QuantileTracker) Add(d time.Duration) {
	if d <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.sketch.Add(d.Seconds())
}

func (q *QuantileTracker) Count() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return int64(q.sketch.GetCount())
}

func (q *QuantileTracker) P50() time.Duration {
	return q.GetQuantile(0.50)
}

func (q *QuantileTracker) P90() time.Duration {
	return q.GetQuantile(0.90)
}

func (q *QuantileTracker) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sketch, _ = ddsketch.NewDefaultDDSketch(0.01)
}

// GetQuantile returns 0 when nothing has been recorded yet.
func (q *QuantileTracker) GetQuantile(qtile float64) time.Duration {
	q.mu.RLock()
	defer q.mu.RUnlock()
	val, err := q.sketch.GetValueAtQuantile(qtile)
	if err != nil {
		return 0
	}
	return time.Duration(val * float64(time.Second))
}

func (q *QuantileTracker) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(struct {
		P50 float64 `json:"p50Ms"`
		P90 float64 `json:"p90Ms"`
	}{
		P50: float64(q.P50().Microseconds()) / 1000,
		P90: float64(q.P90().Microseconds()) / 1000,
	})
}
