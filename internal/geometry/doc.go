// Package geometry is the single coordinate-transform contract shared by
// every interactive overlay: word highlighting, crop rectangles, stamp
// placement, search-match scrolling, and jump-to-location.
//
// Three coordinate spaces are involved:
//
//   - pixel: page-native, [0,width] x [0,height]
//   - normalized: [0,1] x [0,1], zoom and render-scale independent; the only
//     space anything is persisted or transmitted in
//   - overlay percentage: 0-100, used purely for positioning rendered
//     overlay elements sized relative to their container
//
// All functions are pure; the package has no dependencies beyond the model
// types, which keeps it unit-testable independent of any rendering.
package geometry
