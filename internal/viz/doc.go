// Package viz draws a spinning globe and its data shells in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: variable menu in front of the live globe
//   - [Model]: ticks a scene.World and draws it on a Braille [Canvas]
//   - Theme selection with 4 built-in color schemes
//
// Land cells are drawn from the grid attributes. A shell cell is drawn when
// its material index reaches the threshold, so sparse fields such as cloud
// cover show as dots moving over the land.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	S     - Save SVG snapshot
//	V     - Back to the variable menu
//	?     - Show help overlay
package viz
