//go:build unix

package tcp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketReuseAddr lets a restarted node bind its port again while old
// connections sit in TIME_WAIT. SO_REUSEPORT is left off so two nodes can't
// share a port.
func setSocketReuseAddr(network, address string, c syscall.RawConn) error {
	var setSockOptErr error
	err := c.Control(func(fd uintptr) {
		setSockOptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setSockOptErr
}
