// Package search scans the reconciled page collection for a query term and
// drives scroll-to-match navigation.
//
// Matching is Unicode case-folded substring containment against each word's
// text. Match indices point into a page's final word array and are frozen
// once that page is stored; they are never renumbered retroactively as more
// pages arrive. Matches are recomputed whenever the term or the collection
// changes, never mutated in place.
package search
