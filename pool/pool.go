// Package pool keeps a bounded set of live connections and hands them to
// callers in strict arrival order.
//
// A connection is Idle, InUse, Closing or Closed. At most MaxSize
// connections exist at once, counting dials in flight. Callers that find the
// pool at capacity wait in a FIFO queue; a released connection goes straight
// to the oldest waiter. Idle connections that have not been used for
// HealthCheckFreq are pinged before being handed out and replaced when the
// ping fails. A background reaper closes connections idle for longer than
// IdleTimeout (keeping MinSize) or older than MaxLifetime.
package pool

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/utils"
)

// DialFunc opens one new session.
type DialFunc func(ctx context.Context) (database.Conn, error)

const (
	defaultCloseTimeout = 5 * time.Second
	minReapInterval     = 10 * time.Millisecond
	maxReapInterval     = time.Minute
)

type Pool struct {
	cfg          connector.PoolConfig
	dial         DialFunc
	log          logrus.FieldLogger
	name         string
	reapInterval time.Duration
	closeTimeout time.Duration

	mu      sync.Mutex
	idle    []*Conn // most recently used last
	all     map[*Conn]struct{}
	numOpen int // idle + in use + dials in flight
	inUse   int
	waiters *list.List
	closed  bool
	stats   counters

	closing chan struct{}
	drained chan struct{}
	reaped  chan struct{}
}

// grant is what a waiter receives: a connection, a reserved slot to dial
// into, or an error.
type grant struct {
	conn *Conn
	dial bool
	err  error
}

type waiter struct {
	ch   chan grant
	elem *list.Element
}

// New opens cfg.MinSize connections and starts the reaper. It fails, closing
// whatever it opened, if any of the initial dials fails.
func New(ctx context.Context, cfg connector.PoolConfig, dial DialFunc, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pool{
		cfg:          cfg,
		dial:         dial,
		log:          utils.DiscardLogger(),
		closeTimeout: defaultCloseTimeout,
		all:          make(map[*Conn]struct{}),
		waiters:      list.New(),
		closing:      make(chan struct{}),
		drained:      make(chan struct{}),
		reaped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.name != "" {
		p.log = p.log.WithField("pool", p.name)
	}
	if p.reapInterval <= 0 {
		p.reapInterval = reapInterval(cfg)
	}

	for i := 0; i < cfg.MinSize; i++ {
		p.mu.Lock()
		p.numOpen++
		p.mu.Unlock()
		c, err := p.open(ctx)
		if err != nil {
			p.mu.Lock()
			p.numOpen--
			p.mu.Unlock()
			p.shutdownNow()
			return nil, err
		}
		p.mu.Lock()
		p.putLocked(c)
		p.mu.Unlock()
	}

	go p.reaper()
	p.log.WithField("min_size", cfg.MinSize).WithField("max_size", cfg.MaxSize).Info("Pool opened")
	return p, nil
}

func reapInterval(cfg connector.PoolConfig) time.Duration {
	d := maxReapInterval
	for _, v := range []time.Duration{cfg.IdleTimeout, cfg.MaxLifetime} {
		if v > 0 && v/2 < d {
			d = v / 2
		}
	}
	if d < minReapInterval {
		d = minReapInterval
	}
	return d
}

func (p *Pool) Config() connector.PoolConfig { return p.cfg }

// Acquire leases a connection. It waits at most cfg.AcquireTimeout for one
// to become available and then fails with errs.ErrPoolExhausted; cancelling
// ctx ends the wait with ctx's error.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	parent := ctx
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errs.ErrPoolClosed
	}
	p.stats.acquires++

	if len(p.idle) > 0 && p.waiters.Len() == 0 {
		c := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.checkoutLocked(c)
		p.mu.Unlock()
		return p.prepare(ctx, c)
	}

	if p.numOpen < p.cfg.MaxSize && p.waiters.Len() == 0 {
		p.numOpen++
		p.mu.Unlock()
		return p.dialInto(ctx)
	}

	w := &waiter{ch: make(chan grant, 1)}
	w.elem = p.waiters.PushBack(w)
	p.stats.waits++
	p.mu.Unlock()

	start := time.Now()
	select {
	case g := <-w.ch:
		p.recordWait(start)
		return p.accept(ctx, g)
	case <-ctx.Done():
		p.mu.Lock()
		if w.elem != nil {
			p.waiters.Remove(w.elem)
			w.elem = nil
		} else {
			// Granted concurrently: pass the grant on.
			p.returnGrantLocked(<-w.ch)
		}
		p.stats.waitTime += time.Since(start)
		if parent.Err() == nil {
			p.stats.timeouts++
		}
		p.mu.Unlock()

		if err := parent.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no connection within %s (max %d)", errs.ErrPoolExhausted, p.cfg.AcquireTimeout, p.cfg.MaxSize)
	}
}

func (p *Pool) recordWait(start time.Time) {
	p.mu.Lock()
	p.stats.waitTime += time.Since(start)
	p.mu.Unlock()
}

func (p *Pool) accept(ctx context.Context, g grant) (*Conn, error) {
	switch {
	case g.err != nil:
		return nil, g.err
	case g.dial:
		return p.dialInto(ctx)
	default:
		return g.conn, nil
	}
}

// returnGrantLocked undoes a grant whose waiter has gone away.
func (p *Pool) returnGrantLocked(g grant) {
	switch {
	case g.conn != nil:
		p.inUse--
		p.putLocked(g.conn)
	case g.dial:
		p.numOpen--
		p.grantSlotLocked()
	}
}

// dialInto opens a connection into a slot already counted in numOpen.
func (p *Pool) dialInto(ctx context.Context) (*Conn, error) {
	c, err := p.open(ctx)
	p.mu.Lock()
	if err != nil {
		p.numOpen--
		p.grantSlotLocked()
		p.signalDrainedLocked()
		p.mu.Unlock()
		return nil, err
	}
	if p.closed {
		p.numOpen--
		p.signalDrainedLocked()
		p.mu.Unlock()
		p.closeConn(c)
		return nil, errs.ErrPoolClosed
	}
	p.all[c] = struct{}{}
	p.inUse++
	p.mu.Unlock()
	return c, nil
}

func (p *Pool) open(ctx context.Context) (*Conn, error) {
	raw, err := p.dial(ctx)
	if err != nil {
		p.log.WithError(err).Warn("Failed to open connection")
		return nil, err
	}
	c := newConn(p, raw, time.Now())
	p.mu.Lock()
	p.stats.dials++
	p.mu.Unlock()
	p.log.WithField("conn_id", c.ID()).Debug("Connection opened")
	return c, nil
}

func (p *Pool) checkoutLocked(c *Conn) {
	c.setState(StateInUse)
	p.inUse++
}

// prepare pings an idle connection that has not been used for
// HealthCheckFreq. A dead or expired connection is closed and replaced
// before the caller sees it.
func (p *Pool) prepare(ctx context.Context, c *Conn) (*Conn, error) {
	p.mu.Lock()
	lastUsed := c.lastUsed
	p.mu.Unlock()

	now := time.Now()
	if p.expired(c, now) {
		p.retire(c)
		return p.replace(ctx, c, nil)
	}
	if c.conn.IsClosed() {
		return p.replace(ctx, c, database.Lost(errors.New("connection closed by peer")))
	}
	if now.Sub(lastUsed) < p.cfg.HealthCheckFreq {
		return c, nil
	}
	err := c.conn.Ping(ctx)
	if err == nil {
		return c, nil
	}
	if ctx.Err() != nil {
		p.Discard(c)
		return nil, ctx.Err()
	}
	return p.replace(ctx, c, err)
}

// retire closes c without giving up its slot.
func (p *Pool) retire(c *Conn) {
	p.mu.Lock()
	c.setState(StateClosing)
	delete(p.all, c)
	p.inUse--
	p.mu.Unlock()
	p.closeConn(c)
}

// replace swaps a broken connection for a new one in the same slot. cause
// is nil when c was retired for age.
func (p *Pool) replace(ctx context.Context, c *Conn, cause error) (*Conn, error) {
	if cause != nil {
		p.log.WithError(cause).WithField("conn_id", c.ID()).Warn("Connection failed health check, replacing")
		p.mu.Lock()
		p.stats.unhealthy++
		p.mu.Unlock()
		p.retire(c)
	}
	fresh, err := p.dialInto(ctx)
	if err != nil {
		if cause == nil || errors.Is(err, errs.ErrPoolClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrConnectionUnhealthy, err)
	}
	return fresh, nil
}

func (p *Pool) expired(c *Conn, now time.Time) bool {
	return p.cfg.MaxLifetime > 0 && now.Sub(c.createdAt) >= p.cfg.MaxLifetime
}

// Release returns c to the pool, handing it to the oldest waiter if there
// is one. Releasing a connection that is not in use has no effect. A
// connection whose transport is closed or which outlived MaxLifetime is
// closed instead.
func (p *Pool) Release(c *Conn) {
	p.mu.Lock()
	if c.State() != StateInUse {
		p.mu.Unlock()
		return
	}
	c.lastUsed = time.Now()
	if !p.closed && !c.conn.IsClosed() && !p.expired(c, c.lastUsed) {
		p.inUse--
		p.putLocked(c)
		p.mu.Unlock()
		return
	}
	p.removeLocked(c)
	p.mu.Unlock()
	p.closeConn(c)
}

// Discard closes c instead of returning it. Its slot goes to the oldest
// waiter, which dials a replacement.
func (p *Pool) Discard(c *Conn) {
	p.mu.Lock()
	if c.State() != StateInUse {
		p.mu.Unlock()
		return
	}
	p.stats.discards++
	p.removeLocked(c)
	p.mu.Unlock()
	p.log.WithField("conn_id", c.ID()).Debug("Connection discarded")
	p.closeConn(c)
}

// removeLocked drops an in-use connection and frees its slot.
func (p *Pool) removeLocked(c *Conn) {
	c.setState(StateClosing)
	delete(p.all, c)
	p.inUse--
	p.numOpen--
	p.grantSlotLocked()
	p.signalDrainedLocked()
}

// putLocked files a connection that is not counted as in use: to the oldest
// waiter, to the idle set, or closed when the pool is shutting down.
func (p *Pool) putLocked(c *Conn) {
	p.all[c] = struct{}{}
	if p.closed {
		c.setState(StateClosing)
		delete(p.all, c)
		p.numOpen--
		p.signalDrainedLocked()
		go p.closeConn(c)
		return
	}
	if w := p.popWaiterLocked(); w != nil {
		p.checkoutLocked(c)
		w.ch <- grant{conn: c}
		return
	}
	c.setState(StateIdle)
	p.idle = append(p.idle, c)
}

// grantSlotLocked lets the oldest waiter dial into free capacity.
func (p *Pool) grantSlotLocked() {
	if p.closed || p.numOpen >= p.cfg.MaxSize {
		return
	}
	if w := p.popWaiterLocked(); w != nil {
		p.numOpen++
		w.ch <- grant{dial: true}
	}
}

func (p *Pool) popWaiterLocked() *waiter {
	front := p.waiters.Front()
	if front == nil {
		return nil
	}
	w := p.waiters.Remove(front).(*waiter)
	w.elem = nil
	return w
}

func (p *Pool) signalDrainedLocked() {
	if !p.closed || p.numOpen > 0 {
		return
	}
	select {
	case <-p.drained:
	default:
		close(p.drained)
	}
}

func (p *Pool) closeConn(c *Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), p.closeTimeout)
	defer cancel()
	if err := c.conn.Close(ctx); err != nil {
		p.log.WithError(err).WithField("conn_id", c.ID()).Debug("Failed to close connection")
	}
	c.setState(StateClosed)
}

func (p *Pool) reaper() {
	defer close(p.reaped)
	ticker := time.NewTicker(p.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.closing:
			return
		case <-ticker.C:
			p.reap()
		}
	}
}

// reap closes expired idle connections and tops the pool up to MinSize.
func (p *Pool) reap() {
	now := time.Now()
	var stale []*Conn

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	kept := p.idle[:0]
	for _, c := range p.idle {
		idleTooLong := p.cfg.IdleTimeout > 0 && now.Sub(c.lastUsed) >= p.cfg.IdleTimeout && p.numOpen > p.cfg.MinSize
		if idleTooLong || p.expired(c, now) {
			c.setState(StateClosing)
			delete(p.all, c)
			p.numOpen--
			stale = append(stale, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(p.idle); i++ {
		p.idle[i] = nil
	}
	p.idle = kept
	p.stats.reaped += int64(len(stale))

	missing := 0
	if n := p.cfg.MinSize - p.numOpen; n > 0 {
		missing = n
		p.numOpen += n
	}
	p.mu.Unlock()

	for _, c := range stale {
		p.log.WithField("conn_id", c.ID()).Debug("Reaping idle connection")
		p.closeConn(c)
	}
	for i := 0; i < missing; i++ {
		p.refill()
	}
}

func (p *Pool) refill() {
	timeout := p.cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = defaultCloseTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c, err := p.open(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.numOpen--
		p.grantSlotLocked()
		p.signalDrainedLocked()
		return
	}
	p.putLocked(c)
}

// Close stops new acquisitions, fails every waiter with errs.ErrPoolClosed,
// closes idle connections and waits until leased connections are released
// or ctx ends. Released connections are closed rather than reused.
func (p *Pool) Close(ctx context.Context) error {
	p.shutdown()
	select {
	case <-p.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown marks the pool closed and closes its idle connections. Only the
// first call does anything.
func (p *Pool) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.closing)
	for w := p.popWaiterLocked(); w != nil; w = p.popWaiterLocked() {
		w.ch <- grant{err: errs.ErrPoolClosed}
	}
	idle := p.idle
	p.idle = nil
	for _, c := range idle {
		c.setState(StateClosing)
		delete(p.all, c)
	}
	p.numOpen -= len(idle)
	p.signalDrainedLocked()
	p.mu.Unlock()

	for _, c := range idle {
		p.closeConn(c)
	}
	<-p.reaped
	p.log.Info("Pool closed")
}

// Terminate closes every connection the pool still tracks, including leased
// ones. It is the fallback when Close times out.
func (p *Pool) Terminate() {
	p.shutdown()

	p.mu.Lock()
	conns := make([]*Conn, 0, len(p.all))
	for c := range p.all {
		c.setState(StateClosing)
		conns = append(conns, c)
	}
	p.all = make(map[*Conn]struct{})
	p.numOpen -= len(conns)
	p.inUse = 0
	p.signalDrainedLocked()
	p.mu.Unlock()

	for _, c := range conns {
		p.closeConn(c)
	}
}

// shutdownNow is used when New fails part way, before the reaper starts.
func (p *Pool) shutdownNow() {
	close(p.reaped)
	p.shutdown()
}
