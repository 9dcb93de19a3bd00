package flowork

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// GraphCache memoizes compiled graphs keyed by workflow ID and
// version. A workflow edited through its mutators bumps UpdatedAt,
// which invalidates the cached entry on the next Get. Concurrent Gets
// for the same workflow version share a single compilation.
type GraphCache struct {
	compiler *Compiler

	mu      sync.RWMutex
	entries map[string]*CompiledGraph

	group singleflight.Group
}

// NewGraphCache returns a cache that compiles through the given
// compiler.
func NewGraphCache(compiler *Compiler) *GraphCache {
	return &GraphCache{
		compiler: compiler,
		entries:  make(map[string]*CompiledGraph),
	}
}

// Get returns the compiled graph for the workflow, compiling it if no
// entry exists or the cached entry predates the workflow's UpdatedAt.
func (c *GraphCache) Get(w *Workflow) (*CompiledGraph, error) {
	if w == nil {
		return nil, &CompileError{Err: ErrNoNodes}
	}

	c.mu.RLock()
	cached, ok := c.entries[w.ID]
	c.mu.RUnlock()
	if ok && cached.Version().Equal(w.UpdatedAt) {
		return cached, nil
	}

	key := w.ID + "@" + w.UpdatedAt.Format(time.RFC3339Nano)
	v, err, _ := c.group.Do(key, func() (any, error) {
		cg, err := c.compiler.Compile(w)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[w.ID] = cg
		c.mu.Unlock()
		return cg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledGraph), nil
}

// Invalidate drops any cached graph for the workflow ID.
func (c *GraphCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Len reports the number of cached graphs.
func (c *GraphCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
