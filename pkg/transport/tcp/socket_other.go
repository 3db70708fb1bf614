//go:build !unix

package tcp

import "syscall"

// Windows rebinds over TIME_WAIT without help, and SO_REUSEADDR there would
// allow port stealing.
func setSocketReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
