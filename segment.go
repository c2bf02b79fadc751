package msx

// Segment is a Lagrangian plug of water inside a pipe or a FIFO/LIFO
// tank, carrying one concentration vector. Segments are exclusively
// owned by the deque that holds them and are drawn from a per-project
// free-list pool.
type Segment struct {
	Volume float64
	C      []float64

	next, prev *Segment
}

// SegmentPool is an O(1) acquire/release free-list allocator for
// Segments, grown on demand and released only at Project.Close. This
// bounds the allocation traffic the per-sub-step segment churn would
// otherwise generate.
type SegmentPool struct {
	free     *Segment
	nSpecies int
	created  int
}

// NewSegmentPool returns a pool sized for species vectors of length
// nSpecies.
func NewSegmentPool(nSpecies int) *SegmentPool {
	return &SegmentPool{nSpecies: nSpecies}
}

// Get returns a zeroed Segment, reusing one from the free list when
// possible.
func (p *SegmentPool) Get() *Segment {
	if p.free != nil {
		s := p.free
		p.free = s.next
		s.next, s.prev = nil, nil
		s.Volume = 0
		for i := range s.C {
			s.C[i] = 0
		}
		return s
	}
	p.created++
	return &Segment{C: make([]float64, p.nSpecies+1)}
}

// Put releases s back to the free list.
func (p *SegmentPool) Put(s *Segment) {
	s.prev = nil
	s.next = p.free
	p.free = s
}

// segmentDeque is a pipe's (or FIFO/LIFO tank's) ordered chain of
// segments from the head (downstream end, oldest water, next to be
// ejected) to the tail (upstream end, most recently added). Orientation is tracked with a
// flag rather than by physically reversing the chain, so a flow-
// direction reversal is O(1) rather than an O(n) walk of the chain.
type segmentDeque struct {
	front, back *Segment // physical chain ends
	length      int
	reversed    bool
}

func newSegmentDeque() *segmentDeque { return &segmentDeque{} }

// Head returns the downstream-most segment (oldest, first to be ejected).
func (d *segmentDeque) Head() *Segment {
	if d.reversed {
		return d.back
	}
	return d.front
}

// Tail returns the upstream-most segment (most recently created).
func (d *segmentDeque) Tail() *Segment {
	if d.reversed {
		return d.front
	}
	return d.back
}

// Reverse flips the deque's logical orientation in O(1), used when a
// pipe's flow sign changes between hydraulic steps.
func (d *segmentDeque) Reverse() { d.reversed = !d.reversed }

// Len returns the number of segments currently in the deque.
func (d *segmentDeque) Len() int { return d.length }

// PushTail appends a new segment at the upstream (tail) end.
func (d *segmentDeque) PushTail(pool *SegmentPool, volume float64, c []float64) *Segment {
	s := pool.Get()
	s.Volume = volume
	copy(s.C, c)

	if d.reversed {
		s.next = d.front
		if d.front != nil {
			d.front.prev = s
		}
		d.front = s
		if d.back == nil {
			d.back = s
		}
	} else {
		s.prev = d.back
		if d.back != nil {
			d.back.next = s
		}
		d.back = s
		if d.front == nil {
			d.front = s
		}
	}
	d.length++
	return s
}

// PopHead removes and returns the downstream-most segment.
func (d *segmentDeque) PopHead() *Segment {
	h := d.Head()
	if h == nil {
		return nil
	}
	d.remove(h)
	return h
}

func (d *segmentDeque) remove(s *Segment) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		d.front = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		d.back = s.prev
	}
	s.next, s.prev = nil, nil
	d.length--
}

// headNext returns the segment that follows s when walking from head
// to tail (its upstream neighbor), honoring orientation.
func (d *segmentDeque) headNext(s *Segment) *Segment {
	if d.reversed {
		return s.prev
	}
	return s.next
}

// TotalVolume sums the volume of every segment in the deque.
func (d *segmentDeque) TotalVolume() float64 {
	var total float64
	for s := d.Head(); s != nil; s = d.headNext(s) {
		total += s.Volume
	}
	return total
}

// TotalConcentration returns the volume-weighted average concentration
// across every segment in the deque, the value reported for a pipe as
// a whole at a reporting instant.
func (d *segmentDeque) TotalConcentration() []float64 {
	var nSpecies int
	if h := d.Head(); h != nil {
		nSpecies = len(h.C)
	}
	out := make([]float64, nSpecies)
	total := d.TotalVolume()
	if total <= 0 {
		return out
	}
	for s := d.Head(); s != nil; s = d.headNext(s) {
		for i := range out {
			out[i] += s.C[i] * s.Volume
		}
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// mergeTolerance reports whether two concentration vectors agree to
// within every species' absolute tolerance.
func mergeTolerance(a, b []float64, species []*Species) bool {
	for _, sp := range species {
		if sp == nil {
			continue
		}
		i := sp.Index
		if i >= len(a) || i >= len(b) {
			continue
		}
		if abs64(a[i]-b[i]) > sp.ATol {
			return false
		}
	}
	return true
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// MergeAdjacent coalesces neighboring segments whose concentrations
// agree to within species tolerance, bounding deque length.
func (d *segmentDeque) MergeAdjacent(pool *SegmentPool, species []*Species) {
	s := d.Head()
	for s != nil {
		n := d.headNext(s)
		if n == nil {
			break
		}
		if mergeTolerance(s.C, n.C, species) {
			total := s.Volume + n.Volume
			if total > 0 {
				for i := range s.C {
					s.C[i] = (s.C[i]*s.Volume + n.C[i]*n.Volume) / total
				}
			}
			s.Volume = total
			d.remove(n)
			pool.Put(n)
			continue
		}
		s = n
	}
}

// EnforceMinimumVolume merges segments smaller than the minimum
// transportable volume into their tail-side (upstream) neighbor, avoiding
// pathological subdivision into slivers that never merge back.
func (d *segmentDeque) EnforceMinimumVolume(pool *SegmentPool, minVol float64) {
	s := d.Head()
	for s != nil {
		n := d.headNext(s)
		if s.Volume < minVol && n != nil {
			total := s.Volume + n.Volume
			if total > 0 {
				for i := range n.C {
					n.C[i] = (n.C[i]*n.Volume + s.C[i]*s.Volume) / total
				}
			}
			n.Volume = total
			d.remove(s)
			pool.Put(s)
			s = n
			continue
		}
		s = n
	}
}
