// Package thumbmap holds the thumbnail cache map: thumbnail file name to
// source video path.
//
// A Map is ordered. Maps built with Canonicalize are sorted by locale-aware
// collation of their keys, which is the order they are persisted in, so the
// config file is byte-for-byte reproducible for the same set of thumbnails.
// JSON encoding writes entries in Map order and decoding keeps file order.
package thumbmap
