package core

// Carries session operations between engines running on separate processes
// over libp2p gossip pubsub, mirroring the teacher's Node.Broadcast/
// Subscribe topic pattern (core/network.go) but shaped for Op payloads
// instead of raw bytes.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	log "github.com/sirupsen/logrus"
)

// wireOp is the JSON envelope exchanged over a session topic.
type wireOp struct {
	Recipient string `json:"recipient"`
	Op        Op     `json:"op"`
}

// SessionTransport publishes and receives Ops for a named session over one
// libp2p gossip topic per session, letting a local Engine.Deliver loop feed
// off-process participants without the scheduler knowing the difference.
type SessionTransport struct {
	ctx    context.Context
	cancel context.CancelFunc
	host   host
	pubsub *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// host is the subset of go-libp2p's Host interface this transport needs,
// narrowed so callers can inject a test double without pulling in the full
// libp2p dependency graph in tests.
type host interface {
	Close() error
}

// NewSessionTransport starts a libp2p host listening on listenAddr and joins
// gossipsub over it, following the teacher's NewNode bootstrap sequence.
func NewSessionTransport(listenAddr string) (*SessionTransport, error) {
	ctx, cancel := context.WithCancel(context.Background())

	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("session transport: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("session transport: create pubsub: %w", err)
	}

	return &SessionTransport{
		ctx:    ctx,
		cancel: cancel,
		host:   h,
		pubsub: ps,
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

func (t *SessionTransport) topic(session string) (*pubsub.Topic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tp, ok := t.topics[session]; ok {
		return tp, nil
	}
	tp, err := t.pubsub.Join("session/" + session)
	if err != nil {
		return nil, fmt.Errorf("session transport: join %s: %w", session, err)
	}
	t.topics[session] = tp
	return tp, nil
}

// Publish sends op addressed to recipient over the named session's topic.
func (t *SessionTransport) Publish(session, recipient string, op Op) error {
	tp, err := t.topic(session)
	if err != nil {
		return err
	}
	data, err := json.Marshal(wireOp{Recipient: recipient, Op: op})
	if err != nil {
		return fmt.Errorf("session transport: encode op: %w", err)
	}
	if err := tp.Publish(t.ctx, data); err != nil {
		return fmt.Errorf("session transport: publish %s: %w", session, err)
	}
	return nil
}

// Subscribe joins the named session's topic and feeds every Op addressed to
// a local participant into engine via Deliver, until the transport is
// closed. Run it in its own goroutine; it blocks until Close or a fatal
// subscription error.
func (t *SessionTransport) Subscribe(session string, engine *Engine) error {
	tp, err := t.topic(session)
	if err != nil {
		return err
	}
	sub, err := tp.Subscribe()
	if err != nil {
		return fmt.Errorf("session transport: subscribe %s: %w", session, err)
	}
	for {
		msg, err := sub.Next(t.ctx)
		if err != nil {
			log.WithError(err).WithField("session", session).Warn("session transport: subscription closed")
			return nil
		}
		var wire wireOp
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			log.WithError(err).Warn("session transport: malformed op envelope, dropping")
			continue
		}
		engine.Deliver(wire.Recipient, wire.Op)
	}
}

// Close tears down the pubsub host and cancels all subscriptions.
func (t *SessionTransport) Close() error {
	t.cancel()
	return t.host.Close()
}
