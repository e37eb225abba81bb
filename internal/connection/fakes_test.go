package connection

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/potatochat/streamclient/internal/envelope"
)

// fakeTransport records what the Manager does with it. Tests drive its
// events by hand.
type fakeTransport struct {
	id  string
	url string

	mu      sync.Mutex
	handler EventHandler
	opened  bool
	closed  bool
	sent    [][]byte
}

func (f *fakeTransport) ID() string { return f.id }

func (f *fakeTransport) Open(h EventHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	f.opened = true
}

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrAlreadyClosed
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) sentAt(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[i]
}

func (f *fakeTransport) h() EventHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

func (f *fakeTransport) open()            { f.h().HandleOpen(f) }
func (f *fakeTransport) message(s string) { f.h().HandleMessage(f, []byte(s)) }
func (f *fakeTransport) fail(err error)   { f.h().HandleError(f, err) }
func (f *fakeTransport) drop(code int) {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.h().HandleClose(f, code, "test")
}

// fakeDialer hands out fakeTransports in order.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
}

func (d *fakeDialer) NewTransport(url string) Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTransport{
		id:  fmt.Sprintf("fake-%d", len(d.transports)+1),
		url: url,
	}
	d.transports = append(d.transports, t)
	return t
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// fakeTimers captures reconnect timers instead of running them.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback even if the timer was stopped, which models a
// timer that had already expired when it was cancelled.
func (t *fakeTimer) fire() { t.fn() }

func (ft *fakeTimers) after(d time.Duration, fn func()) stopper {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	ft.timers = append(ft.timers, t)
	return t
}

func (ft *fakeTimers) count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.timers)
}

func (ft *fakeTimers) at(i int) *fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.timers[i]
}

// countingRecorder tallies Recorder calls.
type countingRecorder struct {
	mu        sync.Mutex
	sent      map[string]int
	dropped   map[string]int
	rejected  int
	scheduled []time.Duration
	exhausted []int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		sent:    make(map[string]int),
		dropped: make(map[string]int),
	}
}

func (r *countingRecorder) Sent(msgType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[msgType]++
}

func (r *countingRecorder) SendDropped(msgType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[msgType]++
}

func (r *countingRecorder) FrameRejected(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *countingRecorder) ReconnectScheduled(_ int, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, delay)
}

func (r *countingRecorder) ReconnectExhausted(attempts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhausted = append(r.exhausted, attempts)
}

// eventLog is a listener that records callbacks.
type eventLog struct {
	mu           sync.Mutex
	connected    int
	disconnected int
	messages     []envelope.Envelope
	errors       []string
}

func (l *eventLog) OnConnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected++
}

func (l *eventLog) OnDisconnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnected++
}

func (l *eventLog) OnMessage(env envelope.Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, env)
}

func (l *eventLog) OnError(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *eventLog) counts() (connected, disconnected, messages, errors int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected, l.disconnected, len(l.messages), len(l.errors)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
