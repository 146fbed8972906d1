// Package transport holds what the inbound transports share.
//
// A transport turns platform messages into session events, hands them to
// a Handler on their own goroutine, and delivers the result's reply, if
// any. Command routing happens here: recognized commands travel with the
// event; /start and unknown commands are answered by the transport and
// never reach the session core.
package transport

import (
	"context"

	"mercator-hq/relay/pkg/session"
)

// Handler processes one inbound event. *session.Coordinator implements it.
type Handler interface {
	Handle(ctx context.Context, ev session.Event) (*session.Result, error)
}

var _ Handler = (*session.Coordinator)(nil)
