package canvas

import (
	"sort"
	"strconv"
	"strings"
)

// State is the partition of the canvas into named blocks.
type State struct {
	Width, Height int
	Blocks        map[BlockID]*Block

	// Counter names the next block created by a merge. It starts at the
	// number of initial blocks and only grows.
	Counter int
}

// NewState builds the starting state described by desc.
func NewState(desc *Initial) (*State, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	s := &State{
		Width:   desc.Width,
		Height:  desc.Height,
		Blocks:  make(map[BlockID]*Block, len(desc.Blocks)),
		Counter: len(desc.Blocks),
	}
	for _, spec := range desc.Blocks {
		x0, y0 := spec.BottomLeft[0], spec.BottomLeft[1]
		s.Blocks[BlockID(spec.BlockID)] = NewSolidBlock(x0, y0, spec.TopRight[0]-x0, spec.TopRight[1]-y0, spec.Color)
	}
	return s, nil
}

// Area is the canvas area; every cost is scaled against it.
func (s *State) Area() int { return s.Width * s.Height }

func (s *State) Get(id BlockID) (*Block, bool) {
	b, ok := s.Blocks[id]
	return b, ok
}

// NextID hands out the next merge id.
func (s *State) NextID() BlockID {
	id := BlockID(strconv.Itoa(s.Counter))
	s.Counter++
	return id
}

// Clone returns a copy that shares nothing mutable with s.
func (s *State) Clone() *State {
	c := &State{
		Width:   s.Width,
		Height:  s.Height,
		Blocks:  make(map[BlockID]*Block, len(s.Blocks)),
		Counter: s.Counter,
	}
	for id, b := range s.Blocks {
		c.Blocks[id] = b.clone()
	}
	return c
}

// IDs lists the live block ids in natural order ("0.2" < "0.10" < "1").
func (s *State) IDs() []BlockID {
	ids := make([]BlockID, 0, len(s.Blocks))
	for id := range s.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })
	return ids
}

// CompareIDs orders ids segment by segment, numerically where possible.
func CompareIDs(a, b BlockID) int {
	as, bs := strings.Split(string(a), "."), strings.Split(string(b), ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil && an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		return strings.Compare(as[i], bs[i])
	}
	return len(as) - len(bs)
}
