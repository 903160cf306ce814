// Package model defines the core data structures shared across the engine:
// pages, words, bounding boxes, derived lines, stamps (annotations), search
// matches, the reconciled page collection, and local cache records.
//
// Types in this package carry no behavior beyond validation, merging, and
// serialization. Business logic lives in the packages that consume them.
package model
