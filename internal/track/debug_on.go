//go:build debug

package track

// debugChecks enables the geometric self-consistency assertions during
// construction. Build with -tags debug to turn them on.
const debugChecks = true
