// Package resolve turns dependency expressions into per-version dependency
// maps.
//
// A [Resolver] walks one item's expression tree and produces the raw map;
// [Finalize] then fills gaps between explicit entries and overlays the
// promotion marker. [Run] ties both together for a whole registry and is
// the only place where items are processed concurrently.
//
// Resolution of a single item is a depth-first walk that keeps a stack of
// version cursors and a list of pending prerequisites. A version named in an
// AND group moves the current cursor; an OR alternative that names a new
// version closes the alternatives seen so far and starts a new entry. Once
// the walk finishes, the pending prerequisites apply from the final cursor
// to the last known version.
package resolve
