// Package riblt implements rateless invertible Bloom lookup tables for set
// reconciliation. Two parties holding sets A and B each encode their set
// into an open-ended sequence of coded symbols; subtracting the sequences
// and peeling the result recovers the symmetric difference of A and B. The
// sequence is extended on demand, so neither party needs an estimate of the
// difference size in advance.
package riblt
