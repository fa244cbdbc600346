package middleware

import (
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LatencyStats は直近 maxSize 件のレスポンス時間（ミリ秒）を保持する
type LatencyStats struct {
	mu      sync.Mutex
	samples []float64
	next    int
	maxSize int
}

func NewLatencyStats(size int) *LatencyStats {
	if size < 1 {
		size = 1
	}
	return &LatencyStats{
		maxSize: size,
		samples: make([]float64, 0, size),
	}
}

func (s *LatencyStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := float64(d.Microseconds()) / 1000.0

	// いっぱいになったら一番古いものを上書きする
	if len(s.samples) < s.maxSize {
		s.samples = append(s.samples, ms)
		return
	}
	s.samples[s.next] = ms
	s.next = (s.next + 1) % s.maxSize
}

func (s *LatencyStats) GetPercentile(p float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return 0
	}

	// 計算のためにコピーしてソート
	tmp := make([]float64, len(s.samples))
	copy(tmp, s.samples)
	sort.Float64s(tmp)

	index := int(p / 100.0 * float64(len(tmp)-1))
	return tmp[index]
}

func (s *LatencyStats) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func NewLatencyMiddleware(stats *LatencyStats) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		stats.Record(time.Since(start))
		return err
	}
}
