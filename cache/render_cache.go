package cache

import (
	"reflect"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/visitor"
)

const DefaultSize = 1024

type renderKey struct {
	dialect     string
	fingerprint uint64
}

type renderEntry struct {
	node  ast.Node
	query *visitor.RenderedQuery
}

// RenderCache memoizes rendered statements by dialect and tree fingerprint.
// A hit is served only when the cached tree equals the requested one, so a
// fingerprint collision renders afresh instead of binding another
// statement's parameters.
type RenderCache struct {
	cache  *lru.Cache[renderKey, renderEntry]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewRenderCache(size int) *RenderCache {
	if size <= 0 {
		size = DefaultSize
	}
	c, _ := lru.New[renderKey, renderEntry](size)
	return &RenderCache{cache: c}
}

// Render returns the cached rendering of node for d, rendering and storing it
// on a miss. Errors are not cached.
func (c *RenderCache) Render(node ast.Node, d dialect.Dialect) (*visitor.RenderedQuery, error) {
	if node == nil {
		return visitor.Render(node, d)
	}
	key := renderKey{dialect: d.Name(), fingerprint: node.Fingerprint()}
	if e, ok := c.cache.Get(key); ok && reflect.DeepEqual(e.node, node) {
		c.hits.Add(1)
		return cloneQuery(e.query), nil
	}
	c.misses.Add(1)

	q, err := visitor.Render(node, d)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, renderEntry{node: node, query: q})
	return cloneQuery(q), nil
}

func (c *RenderCache) Len() int { return c.cache.Len() }

func (c *RenderCache) Purge() { c.cache.Purge() }

type Stats struct {
	Hits    uint64 `json:"hits" yaml:"hits"`
	Misses  uint64 `json:"misses" yaml:"misses"`
	Entries int    `json:"entries" yaml:"entries"`
}

func (c *RenderCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.cache.Len()}
}

func cloneQuery(q *visitor.RenderedQuery) *visitor.RenderedQuery {
	cp := *q
	cp.Params = make([]visitor.Param, len(q.Params))
	copy(cp.Params, q.Params)
	return &cp
}
