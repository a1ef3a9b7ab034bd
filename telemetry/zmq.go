package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/pebbe/zmq4"
)

// DefaultEndpoint is where the radar publisher binds its PUB socket.
const DefaultEndpoint = "tcp://127.0.0.1:11205"

// Subscriber delivers raw topic-filtered messages, blocking until one arrives.
type Subscriber interface {
	Recv() ([]byte, error)
	Close() error
}

// ErrClosed is returned by Recv after the subscriber has been closed.
var ErrClosed = errors.New("telemetry: subscriber closed")

// recvSlice bounds each socket read so Close can take the socket between reads.
const recvSlice = 100 * time.Millisecond

// ZMQSubscriber receives messages from a ZeroMQ PUB socket.
//
// Recv and Close may be called from different goroutines.
type ZMQSubscriber struct {
	mu     sync.Mutex // owns sock
	sock   *zmq4.Socket
	closed bool
}

// NewZMQSubscriber connects a SUB socket to endpoint and subscribes to every
// topic starting with prefix.
func NewZMQSubscriber(endpoint, prefix string) (*ZMQSubscriber, error) {
	sock, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create socket: %w", err)
	}
	if err := sock.SetRcvtimeo(recvSlice); err != nil {
		sock.Close()
		return nil, fmt.Errorf("telemetry: failed to set receive timeout: %w", err)
	}
	if err := sock.Connect(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("telemetry: failed to connect to %s: %w", endpoint, err)
	}
	if err := sock.SetSubscribe(prefix); err != nil {
		sock.Close()
		return nil, fmt.Errorf("telemetry: failed to subscribe to %q: %w", prefix, err)
	}
	return &ZMQSubscriber{sock: sock}, nil
}

// Recv blocks until the next message arrives or the subscriber is closed.
func (s *ZMQSubscriber) Recv() ([]byte, error) {
	for {
		msg, err := s.recv()
		if err == nil {
			return msg, nil
		}
		switch zmq4.AsErrno(err) {
		case zmq4.Errno(syscall.EAGAIN), zmq4.Errno(syscall.EINTR):
			continue
		case zmq4.ETERM:
			return nil, ErrClosed
		}
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("telemetry: receive failed: %w", err)
	}
}

func (s *ZMQSubscriber) recv() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.sock.RecvBytes(0)
}

// Close closes the socket, waiting for an in-progress read slice to end.
func (s *ZMQSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sock.Close()
}
