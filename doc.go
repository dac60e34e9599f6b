// Package forest is the root overview for a parallel adaptive-mesh library:
// a forest of 2:1-balanced quadtrees sharing a Connectivity, partitioned
// evenly across simulated ranks via an async, message-passing reshuffle.
//
// The packages are layered bottom-up:
//
//	quadrant/      — fixed-point grid coordinates, Morton ordering, family/
//	                 transform arithmetic for a single quadrant
//	tree/          — a sorted, linearized leaf sequence for one quadtree
//	complete/      — staircase completion of a coordinate range
//	balance/       — intra-tree 2:1 balance
//	connectivity/  — face/corner join tables describing how trees abut
//	overlap/       — cross-tree insulation layer (the ghost set)
//	borderbalance/ — 2:1 balance extended across tree boundaries
//	partition/     — even redistribution of quadrants across ranks
//	forest/        — the top-level aggregate tying the above together
//	wire/          — checksum and wire record encoding
//	pool/          — arena-indexed payload storage
//
// cmd/forestctl exercises each engine from the command line; internal/
// holds the ambient logging, metrics, config and assertion machinery the
// engine packages share.
package forest
