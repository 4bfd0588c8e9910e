package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests     uint64
	errorRequests     uint64
	rateLimited       uint64
	totalDurationMs   uint64
	advancesRequested uint64
	advancesApproved  uint64
	advancesDisbursed uint64
	advancesRejected  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) AdvanceRequested() {
	atomic.AddUint64(&c.advancesRequested, 1)
}

func (c *Collector) AdvanceApproved() {
	atomic.AddUint64(&c.advancesApproved, 1)
}

func (c *Collector) AdvanceDisbursed() {
	atomic.AddUint64(&c.advancesDisbursed, 1)
}

func (c *Collector) AdvanceRejected() {
	atomic.AddUint64(&c.advancesRejected, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"rateLimitedTotal":  limited,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"advancesRequested": atomic.LoadUint64(&c.advancesRequested),
		"advancesApproved":  atomic.LoadUint64(&c.advancesApproved),
		"advancesDisbursed": atomic.LoadUint64(&c.advancesDisbursed),
		"advancesRejected":  atomic.LoadUint64(&c.advancesRejected),
	}
}
