package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// DefaultMaxMessageSize bounds one inbound message. STORE carries a whole
// base64 file, so this is also the largest file a node accepts.
const DefaultMaxMessageSize = 64 * 1024 * 1024

var ErrMessageTooLarge = errors.New("message exceeds size limit")

// A message is the full byte stream of one connection: the sender writes
// one JSON document and half-closes, the receiver reads to EOF.

// readMessage buffers everything up to EOF, failing once more than max
// bytes arrive.
func readMessage(r io.Reader, max int64) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrMessageTooLarge, max)
	}
	return payload, nil
}

type halfCloser interface {
	CloseWrite() error
}

// writeMessage writes payload in a single write and signals end of message
// by shutting down the write side.
func writeMessage(conn net.Conn, payload []byte) error {
	if _, err := conn.Write(payload); err != nil {
		return err
	}
	if hc, ok := conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return nil
}
