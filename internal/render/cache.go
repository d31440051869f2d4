package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxCachedOptions bounds how many option sets keep idle renderers.
// Every terminal resize produces a new width, so old widths are evicted.
const maxCachedOptions = 8

// maxIdlePerOptions bounds the idle renderers kept for one option set
const maxIdlePerOptions = 4

// rendererCache keeps idle glamour renderers per option set.
// A TermRenderer must not be shared by concurrent Render calls, so a
// renderer is taken out of the cache while in use and returned afterwards.
type rendererCache struct {
	mu    sync.Mutex
	idle  map[Options][]*glamour.TermRenderer
	order []Options // least recently used first
	limit int
}

var defaultCache = newRendererCache(maxCachedOptions)

func newRendererCache(limit int) *rendererCache {
	return &rendererCache{
		idle:  make(map[Options][]*glamour.TermRenderer),
		limit: limit,
	}
}

// acquire returns an idle renderer for opts or builds a new one
func (c *rendererCache) acquire(opts Options) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	if list := c.idle[opts]; len(list) > 0 {
		r := list[len(list)-1]
		c.idle[opts] = list[:len(list)-1]
		c.touch(opts)
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	return newRenderer(opts)
}

// release hands r back for reuse
func (c *rendererCache) release(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if list, ok := c.idle[opts]; ok {
		if len(list) < maxIdlePerOptions {
			c.idle[opts] = append(list, r)
		}
		c.touch(opts)
		return
	}

	for len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.idle, oldest)
	}
	c.idle[opts] = []*glamour.TermRenderer{r}
	c.order = append(c.order, opts)
}

// touch moves opts to the most recently used end. Callers hold mu.
func (c *rendererCache) touch(opts Options) {
	for i, o := range c.order {
		if o == opts {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), opts)
			return
		}
	}
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := opts.Style
	if style == "" {
		style = StyleDark
	}

	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(style),
		glamour.WithWordWrap(opts.Width),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}
