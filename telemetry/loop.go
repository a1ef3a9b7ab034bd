package telemetry

import (
	"bytes"
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Renderer shows one display value, blocking until its rendering is complete.
//
// *leddisplay.Dev implements it.
type Renderer interface {
	Flash(ctx context.Context, value int) error
}

// Loop feeds decoded readings from a Subscriber to a Renderer, one at a time.
type Loop struct {
	Sub     Subscriber
	Display Renderer
	Prefix  string // Messages whose topic does not start with Prefix are ignored
	Logger  zerolog.Logger
}

// Run receives and renders messages until ctx is cancelled or the subscriber
// fails.
//
// Malformed messages are logged and skipped. A message is only taken from
// the subscriber once the previous reading has been fully rendered. Run
// returns ctx.Err() on cancellation and the subscriber error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan []byte)
	errc := make(chan error, 1)
	go l.receive(ctx, msgs, errc)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case msg := <-msgs:
			if err := l.handle(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// receive pumps the blocking Subscriber into msgs. The send blocks until the
// loop is ready, so at most one message is held outside the subscriber.
func (l *Loop) receive(ctx context.Context, msgs chan<- []byte, errc chan<- error) {
	for {
		msg, err := l.Sub.Recv()
		if err != nil {
			errc <- err
			return
		}
		select {
		case msgs <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// handle decodes and renders one message. Only render failures and
// cancellation are returned.
func (l *Loop) handle(ctx context.Context, msg []byte) error {
	if !bytes.HasPrefix(msg, []byte(l.Prefix)) {
		l.Logger.Debug().Bytes("message", msg).Msg("ignoring message for other topic")
		return nil
	}

	r, err := Decode(msg)
	if errors.Is(err, ErrNoPayload) {
		l.Logger.Debug().Bytes("message", msg).Msg("ignoring message without payload")
		return nil
	}
	if err != nil {
		l.Logger.Warn().Err(err).Msg("error parsing JSON")
		return nil
	}

	value := r.DisplayValue()
	l.Logger.Info().
		Str("topic", r.Topic).
		Float64("speed", r.Floor()).
		Int("display", value).
		Str("units", r.Units).
		Str("direction", r.Direction).
		Msg("speed reading")

	return l.Display.Flash(ctx, value)
}
