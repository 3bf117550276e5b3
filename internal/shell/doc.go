// Package shell implements the animated variable shells drawn over the globe.
//
// A shell holds keyframes for one (run, model, variable, level) tuple and
// turns them into display-ready frames:
//
//   - [KeyframeStore]: tracks which keyframes have arrived and fills segments
//   - [Interpolate]: linear tweening between two adjacent keyframes
//   - [DisplayConfig]: maps a cell value to a color and an opacity material
//   - [Shell]: frame cursor, per-face coloring and draw groups
//
// # Example
//
//	sh := shell.New(grid, shell.DefaultOptions())
//	sh.Configure(shell.Variable{RunID: run, Model: "atm", VarName: "TS", Level: -1})
//	sh.SetDisplay(ctx, client, shell.Display{Mode: shell.ModeBimodal, Height: shell.HeightAbove(1.02)})
//	for range ticker.C {
//		sh.Tick()
//	}
//
// # Thread Safety
//
// A Shell is owned by one goroutine. Fetches run in the background and hand
// their results over a channel that is drained inside [Shell.Tick], so all
// mutation happens on the ticking goroutine.
package shell
