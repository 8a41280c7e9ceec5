package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is a raw encoded signaling message.
type Frame []byte

// ConnectionID addresses one live client connection.
type ConnectionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: it either queues the frame or fails.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

func (r *PublishResult) Merge(o PublishResult) {
	r.SendTo += o.SendTo
	r.Dropped = append(r.Dropped, o.Dropped...)
}
