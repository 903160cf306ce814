package model

// SearchMatch points at one word of one page that contains the current
// query term. WordIndex indexes the page's final word array, not the
// post-line-grouping order. Matches are recomputed whenever the query or
// the page collection changes, never mutated in place.
type SearchMatch struct {
	// PageNum is the matched page's 1-based number.
	PageNum int `json:"page_num"`

	// WordIndex is the word's position within the page's Words slice.
	WordIndex int `json:"word_index"`
}

// LocalStampPrefix marks stamp ids generated locally before the backend
// confirms the placement. Confirmed stamps never carry this prefix.
const LocalStampPrefix = "local-"

// Stamp is a point annotation anchored in normalized page coordinates, so it
// stays correctly positioned across zoom level changes and page re-renders.
//
// A stamp's ID is server-assigned once the create request succeeds; before
// that it holds a locally generated temporary id and Pending is true.
type Stamp struct {
	// ID is the server-assigned stamp id, or a temporary local id
	// (LocalStampPrefix + uuid) while the placement is unconfirmed.
	ID string `json:"stamp_id"`

	// Type identifies the stamp symbol or image reference.
	Type string `json:"type"`

	// X and Y are the anchor point normalized to the page dimensions,
	// both in [0,1]. Pixel positions are render-time derivations only.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// PageNum is the 1-based page the stamp is anchored to.
	PageNum int `json:"page_num"`

	// Pending is true while the optimistic placement awaits confirmation.
	// Pending stamps are local-only and never persisted.
	Pending bool `json:"-"`
}
