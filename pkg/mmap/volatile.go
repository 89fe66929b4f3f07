package mmap

// Unaligned device accesses go through these so the compiler cannot combine,
// reorder or drop them.

//go:noinline
func load8(p *uint8) uint8 {
	return *p
}

//go:noinline
func store8(p *uint8, v uint8) {
	*p = v
}
