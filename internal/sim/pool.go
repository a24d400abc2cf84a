package sim

import "sync"

// FramePool recycles frame-sized coordinate slices so observer
// notifications do not allocate on every sample.
type FramePool struct {
	pool sync.Pool
	size int
}

func NewFramePool(size int) *FramePool {
	return &FramePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, size)
			},
		},
	}
}

func (p *FramePool) Get() []float64 {
	return p.pool.Get().([]float64)
}

func (p *FramePool) Put(f []float64) {
	if len(f) == p.size {
		p.pool.Put(f)
	}
}

func (p *FramePool) GetAndCopy(src []float64) []float64 {
	dst := p.Get()
	copy(dst, src)
	return dst
}
