// Package mesh provides the discretised domain the regulator senses.
//
// The domain is a straight pipe split into equal control volumes along x.
// It carries three boundary patches: inlet and outlet with one face each,
// and wall with one face per cell. Named fields live on cells and on
// patch faces.
//
// A pipe can be decomposed into contiguous partitions. Each [Partition] is
// a local view that only sees its own cells and faces, and all partitions
// of one decomposition share a [Comm] for global sums.
package mesh
