// Package proxigo provides a periodic-box neighbor-query engine for Go.
//
// Proxigo answers fixed-radius ("ball") and k-nearest neighbor queries over
// point sets living in periodic simulation boxes, including triclinic and
// two-dimensional boxes. Distances are always minimum-image distances.
//
// # Quick Start
//
// Create an engine over a point set and query it:
//
//	ctx := context.Background()
//	b, _ := box.NewCubic(10)
//	eng, _ := proxigo.New(b, points)
//
//	nl, _ := eng.ComputeNeighborList(ctx, points, proxigo.QueryArgs{
//	    Mode:      proxigo.ModeBall,
//	    RMax:      1.5,
//	    ExcludeII: true,
//	})
//	for i := 0; i < nl.NumBonds(); i++ {
//	    fmt.Println(nl.Bond(i))
//	}
//
// Nearest-neighbor queries work the same way:
//
//	nl, _ := eng.ComputeNeighborList(ctx, queryPoints, proxigo.QueryArgs{
//	    Mode:         proxigo.ModeNearest,
//	    NumNeighbors: 6,
//	})
//
// Streaming consumption avoids materializing the full list:
//
//	it, _ := eng.Query(ctx, queryPoints, args)
//	for {
//	    bond, ok, err := it.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    process(bond)
//	}
//
// # Indexing
//
// Queries run against a uniform-grid cell index sized from the query
// arguments; the engine falls back to a brute-force scan when the grid
// cannot fit the box or when forced with WithBruteForce. Neighbor lists
// are built by a deterministic parallel pipeline: results are identical
// bond for bond regardless of worker count.
//
// # Key Features
//
//   - Orthorhombic, triclinic and 2D periodic boxes with minimum-image math
//   - Ball and k-nearest queries with optional inner cutoff and self-exclusion
//   - Expanding-shell grid search with early termination
//   - Deterministic parallel neighbor-list builds
//   - Compressed neighbor-list snapshots (LZ4/Zstandard)
//   - Periodic buffer replication for analysis windows
package proxigo
