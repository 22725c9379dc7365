package pool

import "time"

// Stats is a snapshot of pool occupancy and counters.
type Stats struct {
	Total   int `json:"total" yaml:"total"`
	Idle    int `json:"idle" yaml:"idle"`
	InUse   int `json:"in_use" yaml:"in_use"`
	Waiting int `json:"waiting" yaml:"waiting"`
	Max     int `json:"max" yaml:"max"`

	AcquireCount   int64         `json:"acquire_count" yaml:"acquire_count"`
	WaitCount      int64         `json:"wait_count" yaml:"wait_count"`
	WaitDuration   time.Duration `json:"wait_duration" yaml:"wait_duration"`
	TimeoutCount   int64         `json:"timeout_count" yaml:"timeout_count"`
	DialCount      int64         `json:"dial_count" yaml:"dial_count"`
	UnhealthyCount int64         `json:"unhealthy_count" yaml:"unhealthy_count"`
	DiscardCount   int64         `json:"discard_count" yaml:"discard_count"`
	ReapedCount    int64         `json:"reaped_count" yaml:"reaped_count"`
}

type counters struct {
	acquires  int64
	waits     int64
	waitTime  time.Duration
	timeouts  int64
	dials     int64
	unhealthy int64
	discards  int64
	reaped    int64
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Total:          p.numOpen,
		Idle:           len(p.idle),
		InUse:          p.inUse,
		Waiting:        p.waiters.Len(),
		Max:            p.cfg.MaxSize,
		AcquireCount:   p.stats.acquires,
		WaitCount:      p.stats.waits,
		WaitDuration:   p.stats.waitTime,
		TimeoutCount:   p.stats.timeouts,
		DialCount:      p.stats.dials,
		UnhealthyCount: p.stats.unhealthy,
		DiscardCount:   p.stats.discards,
		ReapedCount:    p.stats.reaped,
	}
}
