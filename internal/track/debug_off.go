//go:build !debug

package track

const debugChecks = false
