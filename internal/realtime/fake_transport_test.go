package realtime

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/goccy/go-json"
)

type fakeTransport struct {
	mu        sync.Mutex
	written   [][]byte
	pings     int
	pingErr   error
	writeErr  error
	closed    bool
	closeCode int
	onPong    func()

	reads chan []byte
	done  chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{reads: make(chan []byte, 16), done: make(chan struct{})}
}

func (f *fakeTransport) WriteMessage(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeTransport) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	select {
	case data := <-f.reads:
		return data, nil
	case <-f.done:
		return nil, io.EOF
	}
}

func (f *fakeTransport) SetPongHandler(fn func()) {
	f.mu.Lock()
	f.onPong = fn
	f.mu.Unlock()
}

func (f *fakeTransport) Close(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("already closed")
	}
	f.closed = true
	f.closeCode = code
	close(f.done)
	return nil
}

func (f *fakeTransport) RemoteAddr() string { return "127.0.0.1:50000" }

func (f *fakeTransport) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) messages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.written))
	for _, raw := range f.written {
		var m map[string]any
		if json.Unmarshal(raw, &m) == nil {
			out = append(out, m)
		}
	}
	return out
}
