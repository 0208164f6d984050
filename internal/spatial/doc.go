// Package spatial builds undirected proximity graphs from geolocated points.
//
// Nodes are dense integer indices assigned in insertion order. An edge joins
// two nodes when the great-circle distance between them satisfies the
// configured inclusion policy. Every unordered pair is evaluated exactly once
// by brute force; there is no spatial index.
package spatial
