package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Transport sends framed data over an arbitrary io.Writer half of a duplex
// byte stream, the way transport/client/stdio.Transport sends over a
// spawned subprocess's stdin - except here the writer is supplied directly
// by the caller rather than owned by a gosh runner.
type Transport struct {
	writer io.Writer
	sync.Mutex
}

// SendData sends data to the Transport
func (t *Transport) SendData(ctx context.Context, data []byte) error {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	if t.writer == nil {
		return fmt.Errorf("Transport is not initialized")
	}
	_, err := t.writer.Write(data)
	return err
}
