// Package memzero clears secrets held in byte slices once they are no
// longer needed.
package memzero

import "runtime"

// Wipe zeroes every byte of each slice in bufs.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
