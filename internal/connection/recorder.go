package connection

import "time"

// Recorder observes Manager activity that listeners never see. Calls are
// made outside the Manager's lock and must not block.
type Recorder interface {
	Sent(msgType string)
	SendDropped(msgType string)
	FrameRejected(err error)
	ReconnectScheduled(attempt int, delay time.Duration)
	ReconnectExhausted(attempts int)
}

// NopRecorder discards everything. Embed it to implement a subset.
type NopRecorder struct{}

func (NopRecorder) Sent(string)                           {}
func (NopRecorder) SendDropped(string)                    {}
func (NopRecorder) FrameRejected(error)                   {}
func (NopRecorder) ReconnectScheduled(int, time.Duration) {}
func (NopRecorder) ReconnectExhausted(int)                {}

// MultiRecorder fans out to several recorders in order.
type MultiRecorder []Recorder

func (m MultiRecorder) Sent(msgType string) {
	for _, r := range m {
		r.Sent(msgType)
	}
}

func (m MultiRecorder) SendDropped(msgType string) {
	for _, r := range m {
		r.SendDropped(msgType)
	}
}

func (m MultiRecorder) FrameRejected(err error) {
	for _, r := range m {
		r.FrameRejected(err)
	}
}

func (m MultiRecorder) ReconnectScheduled(attempt int, delay time.Duration) {
	for _, r := range m {
		r.ReconnectScheduled(attempt, delay)
	}
}

func (m MultiRecorder) ReconnectExhausted(attempts int) {
	for _, r := range m {
		r.ReconnectExhausted(attempts)
	}
}
