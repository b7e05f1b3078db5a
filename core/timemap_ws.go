package core

// Fulfils §9's optional time-map subscription API over a websocket fan-out,
// mirroring the teacher's mesh transport's use of gorilla/websocket for
// framed, text-message push to connected peers.

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// timeMapUpdateMessage is the wire shape pushed to subscribed clients.
type timeMapUpdateMessage struct {
	Domain    DomainID      `json:"domain"`
	Height    uint64        `json:"height"`
	Timestamp int64         `json:"timestamp"`
	Hash      ContentHash   `json:"hash"`
}

// WebsocketTimeMapObserver implements TimeMapObserver by fanning every
// update out to a set of connected websocket clients. Clients that fail a
// write are dropped rather than blocking the writer that owns the TimeMap.
type WebsocketTimeMapObserver struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewWebsocketTimeMapObserver() *WebsocketTimeMapObserver {
	return &WebsocketTimeMapObserver{clients: make(map[*websocket.Conn]struct{})}
}

// Register adds conn to the fan-out set. The caller owns conn's lifecycle
// (handshake, read-loop for pings/close) outside this type.
func (o *WebsocketTimeMapObserver) Register(conn *websocket.Conn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clients[conn] = struct{}{}
}

// Remove drops conn from the fan-out set.
func (o *WebsocketTimeMapObserver) Remove(conn *websocket.Conn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.clients, conn)
}

// OnTimeMapUpdate implements TimeMapObserver.
func (o *WebsocketTimeMapObserver) OnTimeMapUpdate(domain DomainID, entry TimeMapEntry) {
	msg := timeMapUpdateMessage{
		Domain:    domain,
		Height:    entry.Height,
		Timestamp: entry.Timestamp.UnixMilli(),
		Hash:      entry.Hash,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("time map observer: encode update")
		return
	}

	o.mu.Lock()
	dead := make([]*websocket.Conn, 0)
	for conn := range o.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		delete(o.clients, conn)
	}
	o.mu.Unlock()

	for _, conn := range dead {
		log.WithField("domain", domain).Debug("time map observer: dropping unresponsive client")
		conn.Close()
	}
}
