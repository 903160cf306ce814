// Package annotation manages point annotations ("stamps") for one document.
//
// Placement is optimistic: the stamp appears locally under a temporary id
// before the create request is issued, the id is swapped for the
// server-assigned one on success, and the entry is rolled back on failure.
// A failed placement is never fatal to the session; the user may retry.
// Deletion is pessimistic: local state changes only after the server
// confirms.
package annotation
