// Package viz renders a running solver in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: ticks the solver at 60 Hz and drives the recolor director
//   - [Canvas]: braille canvas with one blended color per character
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart the fill without a palette
//	C     - Recolor from the image now
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	Q     - Quit
//
// # Recording
//
// G starts capturing frames; pressing it again writes verletsim.gif to the
// current directory.
package viz
