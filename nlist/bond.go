// Package nlist provides the neighbor-bond record, the compact sparse
// NeighborList and the two-phase parallel pipeline that builds one from
// many independent per-point searches.
package nlist

import (
	"github.com/hupe1980/proxigo/vec3"
)

// Bond records one directed neighbor pair: a query point, the reference
// point found near it, the wrapped distance between them, a weight and the
// minimum-image displacement vector from query point to reference point.
//
// Bonds are plain values. They are created transiently during a query and
// owned by whichever buffer or list holds them.
type Bond struct {
	QueryPointIdx uint32
	PointIdx      uint32
	Distance      float32
	Weight        float32
	Vector        vec3.Vec3
}

// NewBond returns a bond with the default weight of 1.
func NewBond(queryPointIdx, pointIdx uint32, distance float32, vector vec3.Vec3) Bond {
	return Bond{
		QueryPointIdx: queryPointIdx,
		PointIdx:      pointIdx,
		Distance:      distance,
		Weight:        1,
		Vector:        vector,
	}
}

// Less orders bonds by distance with the point index as tie-breaker, so
// nearest-neighbor candidate sorts are deterministic.
func (b Bond) Less(o Bond) bool {
	if b.Distance != o.Distance {
		return b.Distance < o.Distance
	}
	return b.PointIdx < o.PointIdx
}

// LessAsTuple orders bonds lexicographically by
// (query point, point, weight, distance). This is the global ordering of a
// packed NeighborList.
func (b Bond) LessAsTuple(o Bond) bool {
	if b.QueryPointIdx != o.QueryPointIdx {
		return b.QueryPointIdx < o.QueryPointIdx
	}
	if b.PointIdx != o.PointIdx {
		return b.PointIdx < o.PointIdx
	}
	if b.Weight != o.Weight {
		return b.Weight < o.Weight
	}
	return b.Distance < o.Distance
}

// LessAsDistance orders bonds by query point first and then by distance,
// with point index and weight as tie-breakers. Consumers that want each
// query point's bonds nearest-first sort with this relation.
func (b Bond) LessAsDistance(o Bond) bool {
	if b.QueryPointIdx != o.QueryPointIdx {
		return b.QueryPointIdx < o.QueryPointIdx
	}
	if b.Distance != o.Distance {
		return b.Distance < o.Distance
	}
	if b.PointIdx != o.PointIdx {
		return b.PointIdx < o.PointIdx
	}
	return b.Weight < o.Weight
}
