package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// fakeTransport records everything the session writes. Safe for the write
// loop and the test goroutine to touch concurrently.
type fakeTransport struct {
	mu         sync.Mutex
	texts      [][]byte
	closeCount int
	closeCode  int
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		buf := make([]byte, len(data))
		copy(buf, data)
		f.texts = append(f.texts, buf)
	}
	return nil
}

func (f *fakeTransport) WriteControl(messageType int, data []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		f.closeCode = int(data[0])<<8 | int(data[1])
	}
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

func (f *fakeTransport) textCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func (f *fakeTransport) lastText() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return nil
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeTransport) closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount > 0
}

func (f *fakeTransport) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount
}
