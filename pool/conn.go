package pool

import (
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/postmodel/database"
)

// State is the lifecycle position of a pooled connection.
type State int32

const (
	StateIdle State = iota
	StateInUse
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInUse:
		return "in_use"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is a connection owned by a Pool. Between Acquire and Release it
// belongs to exactly one caller.
type Conn struct {
	id        ulid.ULID
	conn      database.Conn
	pool      *Pool
	createdAt time.Time

	// guarded by pool.mu
	lastUsed time.Time
	state    atomic.Int32
}

func newConn(p *Pool, c database.Conn, now time.Time) *Conn {
	pc := &Conn{
		id:        ulid.Make(),
		conn:      c,
		pool:      p,
		createdAt: now,
		lastUsed:  now,
	}
	pc.setState(StateInUse)
	return pc
}

func (c *Conn) ID() string { return c.id.String() }

// Raw returns the transport session. It must not be used after Release.
func (c *Conn) Raw() database.Conn { return c.conn }

func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) CreatedAt() time.Time { return c.createdAt }

func (c *Conn) setState(s State) { c.state.Store(int32(s)) }

// Release returns the connection to its pool.
func (c *Conn) Release() { c.pool.Release(c) }

// Discard closes the connection instead of returning it.
func (c *Conn) Discard() { c.pool.Discard(c) }
