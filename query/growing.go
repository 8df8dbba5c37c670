package query

import (
	"sort"

	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/vec3"
)

// maxGrowthAttempts bounds the guess-based retry loop. With Scale > 1 the
// radius reaches the box cap long before this for any sane RGuess; hitting
// the cap is a configuration error surfaced as ErrRadiusGrowth.
const maxGrowthAttempts = 64

// growingNearestIterator implements nearest-neighbor search on top of ball
// queries: starting from RGuess, the radius is multiplied by Scale until at
// least NumNeighbors candidates are found or the radius reaches half the
// minimum nearest-plane distance of the box, at which point one final query
// at the cap decides the result. Fewer than NumNeighbors bonds at the cap
// is legitimate, not an error.
//
// The search runs eagerly at construction so growth failures surface before
// the first Next call.
type growingNearestIterator struct {
	bonds []nlist.Bond
	pos   int
}

func newGrowingNearestIterator(nq NeighborQuery, qp vec3.Vec3, idx int, args Args) (PerPointIterator, error) {
	rCap := nq.Box().MinNearestPlaneDistance() / 2
	r := args.RGuess
	if r > rCap {
		r = rCap
	}

	ballArgs := args
	ballArgs.Mode = ModeBall
	ballArgs.RGuess = 0

	var bonds []nlist.Bond
	for attempt := 0; ; attempt++ {
		if attempt >= maxGrowthAttempts {
			return nil, &ErrRadiusGrowth{Attempts: attempt, RMax: r}
		}
		ballArgs.RMax = r
		per, err := nq.QuerySingle(qp, idx, ballArgs)
		if err != nil {
			return nil, err
		}
		bonds = bonds[:0]
		for {
			b, ok := per.Next()
			if !ok {
				break
			}
			bonds = append(bonds, b)
		}
		if len(bonds) >= args.NumNeighbors || r >= rCap {
			break
		}
		r *= args.Scale
		if r > rCap {
			r = rCap
		}
	}

	sort.Slice(bonds, func(i, j int) bool { return bonds[i].Less(bonds[j]) })
	if len(bonds) > args.NumNeighbors {
		bonds = bonds[:args.NumNeighbors]
	}
	return &growingNearestIterator{bonds: bonds}, nil
}

// Next implements PerPointIterator.
func (it *growingNearestIterator) Next() (nlist.Bond, bool) {
	if it.pos >= len(it.bonds) {
		return nlist.Bond{}, false
	}
	b := it.bonds[it.pos]
	it.pos++
	return b, true
}
