package shadow

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/logger"
)

// PoolKey identifies interchangeable shadow buffers.
type PoolKey struct {
	Cubemap    bool
	Filter     FilterType
	Resolution int
}

// KeyFor returns the buffer key a light needs.
func KeyFor(l *Light) PoolKey {
	return PoolKey{
		Cubemap:    l.Kind == KindOmni,
		Filter:     l.EffectiveFilter(),
		Resolution: l.ShadowResolution,
	}
}

// Pool recycles shadow buffers by key. A borrowed buffer must be returned
// with Add before the end of the frame, and by one borrower only.
type Pool struct {
	dev      gpu.Device
	free     map[PoolKey][]*Buffer
	borrowed map[*Buffer]struct{}
	log      *zap.Logger
}

// NewPool creates an empty pool.
func NewPool(dev gpu.Device) *Pool {
	return &Pool{
		dev:      dev,
		free:     make(map[PoolKey][]*Buffer),
		borrowed: make(map[*Buffer]struct{}),
		log:      logger.Named("shadow.pool"),
	}
}

// Get hands out a buffer suitable for the light, reusing a pooled one when
// available.
func (p *Pool) Get(l *Light) *Buffer {
	key := KeyFor(l)

	var b *Buffer
	if list := p.free[key]; len(list) > 0 {
		b = list[len(list)-1]
		list[len(list)-1] = nil
		p.free[key] = list[:len(list)-1]
	} else {
		b = NewBuffer(p.dev, l.Kind, key.Filter, key.Resolution)
		p.log.Debug("pool miss", zap.String("light", l.Name), zap.Int("resolution", key.Resolution))
	}

	p.borrowed[b] = struct{}{}
	return b
}

// Add returns a buffer borrowed for the light.
func (p *Pool) Add(l *Light, b *Buffer) {
	_, ok := p.borrowed[b]
	assertf(ok, "shadow: buffer %s returned to pool without being borrowed", b.ID)
	delete(p.borrowed, b)

	key := KeyFor(l)
	assertf(b.Matches(key), "shadow: buffer %s returned under a foreign key", b.ID)
	p.free[key] = append(p.free[key], b)
}

// Len returns the number of buffers waiting in the pool.
func (p *Pool) Len() int {
	n := 0
	for _, list := range p.free {
		n += len(list)
	}
	return n
}

// Borrowed returns the number of buffers handed out and not yet returned.
func (p *Pool) Borrowed() int { return len(p.borrowed) }

// Clear destroys every pooled buffer. Borrowed buffers are left to their
// borrowers.
func (p *Pool) Clear() {
	for key, list := range p.free {
		for _, b := range list {
			b.Destroy()
		}
		delete(p.free, key)
	}
}

// Destroy clears the pool and reports buffers still borrowed.
func (p *Pool) Destroy() {
	p.Clear()
	if len(p.borrowed) > 0 {
		p.log.Warn("pool destroyed with borrowed buffers", zap.Int("count", len(p.borrowed)))
	}
}
