package cell

// shellOffsets enumerates the relative grid coordinates of the Chebyshev
// shell at radius r: all offsets whose largest absolute component equals
// r. Shell 0 is the home cell alone; 2D grids keep the z offset at zero.
// The enumeration order is fixed (z, then y, then x ascending) so searches
// are deterministic.
func shellOffsets(r int32, is2D bool) [][3]int32 {
	if r == 0 {
		return [][3]int32{{0, 0, 0}}
	}

	var offs [][3]int32
	lok, hik := -r, r
	if is2D {
		lok, hik = 0, 0
	}
	for k := lok; k <= hik; k++ {
		for j := -r; j <= r; j++ {
			for i := -r; i <= r; i++ {
				if chebyshev(i, j, k) == r {
					offs = append(offs, [3]int32{i, j, k})
				}
			}
		}
	}
	return offs
}

func chebyshev(i, j, k int32) int32 {
	m := abs32(i)
	if a := abs32(j); a > m {
		m = a
	}
	if a := abs32(k); a > m {
		m = a
	}
	return m
}

func abs32(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}
