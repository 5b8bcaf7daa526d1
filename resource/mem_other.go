//go:build !linux

package resource

// availableMemory returns 0 on platforms without a cheap probe, which
// disables the reclamation hint.
func availableMemory() int64 {
	return 0
}
