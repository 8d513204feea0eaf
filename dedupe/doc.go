// Package dedupe collapses figures that render to the same picture.
//
// Each figure image gets a [Fingerprint]: the 128-bit difference hash from
// github.com/rivo/duplo, written as 32 hex digits. Two records with equal
// fingerprints on the same page are one figure drawn twice; the one with
// the larger box survives. Across pages duplicates are kept unless the
// [Suppressor] is created with cross-page suppression, in which case the
// occurrence on the lowest page survives.
package dedupe
