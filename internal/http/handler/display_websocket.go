package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"

	"backend-ticketing/internal/queue"
)

/*
|--------------------------------------------------------------------------
| WebSocket Client Registry
|--------------------------------------------------------------------------
*/

type displayClient struct {
	conn      *websocket.Conn
	writeMux  sync.Mutex
	closeChan chan struct{}
	closed    bool
	lastPong  time.Time
	id        string
}

// DisplayHub pushes queue snapshots to every connected display page.
// Broadcasts are debounced so a burst of mutations becomes one store
// read.
type DisplayHub struct {
	queue *queue.Manager

	mu             sync.RWMutex
	clients        map[*websocket.Conn]*displayClient
	clientCounter  uint64
	cleanupRunning bool

	timerMu sync.Mutex
	timer   *time.Timer
}

const broadcastDelay = 50 * time.Millisecond

func NewDisplayHub(q *queue.Manager) *DisplayHub {
	return &DisplayHub{
		queue:   q,
		clients: make(map[*websocket.Conn]*displayClient),
	}
}

// Serve handles one display connection until it closes.
func (hub *DisplayHub) Serve(c *websocket.Conn) {
	id := atomic.AddUint64(&hub.clientCounter, 1)
	client := &displayClient{
		conn:      c,
		closeChan: make(chan struct{}),
		lastPong:  time.Now(),
		id:        fmt.Sprintf("display-%d", id),
	}

	log.Printf("[display] %s connecting from %s", client.id, c.RemoteAddr())
	hub.register(c, client)
	defer hub.unregister(c, client.id)

	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.SetPongHandler(func(string) error {
		client.writeMux.Lock()
		client.lastPong = time.Now()
		client.writeMux.Unlock()
		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Initial snapshot for this client only
	go func() {
		message, err := hub.buildMessage()
		if err != nil {
			log.Printf("[display] initial snapshot failed: %v", err)
			return
		}
		hub.writeToClient(client, message)
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				client.writeMux.Lock()
				if client.closed {
					client.writeMux.Unlock()
					return
				}
				c.SetWriteDeadline(time.Now().Add(5 * time.Second))
				err := c.WriteMessage(websocket.PingMessage, nil)
				client.writeMux.Unlock()

				if err != nil {
					log.Printf("[display] %s ping error: %v", client.id, err)
					return
				}
			case <-client.closeChan:
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.Printf("[display] %s unexpected close: %v", client.id, err)
			} else {
				log.Printf("[display] %s closed normally", client.id)
			}
			return
		}
	}
}

// Broadcast schedules a push to every client. Debounced: a burst of
// mutations still reads the store once.
func (hub *DisplayHub) Broadcast() {
	hub.timerMu.Lock()
	defer hub.timerMu.Unlock()

	if hub.timer != nil {
		hub.timer.Reset(broadcastDelay)
		return
	}

	hub.timer = time.AfterFunc(broadcastDelay, func() {
		hub.timerMu.Lock()
		hub.timer = nil
		hub.timerMu.Unlock()

		hub.broadcastNow()
	})
}

func (hub *DisplayHub) register(c *websocket.Conn, client *displayClient) {
	hub.mu.Lock()
	hub.clients[c] = client
	total := len(hub.clients)
	startCleanup := !hub.cleanupRunning
	if startCleanup {
		hub.cleanupRunning = true
	}
	hub.mu.Unlock()

	log.Printf("[display] %s registered, total: %d", client.id, total)
	if startCleanup {
		go hub.periodicCleanup()
	}
}

func (hub *DisplayHub) unregister(c *websocket.Conn, clientID string) {
	hub.mu.Lock()
	if client, exists := hub.clients[c]; exists {
		client.writeMux.Lock()
		if !client.closed {
			client.closed = true
			close(client.closeChan)
		}
		client.writeMux.Unlock()
		delete(hub.clients, c)
	}
	total := len(hub.clients)
	hub.mu.Unlock()

	_ = c.Close()
	log.Printf("[display] %s unregistered, total: %d", clientID, total)
}

// periodicCleanup drops connections that stopped answering pings.
func (hub *DisplayHub) periodicCleanup() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		hub.mu.Lock()
		if len(hub.clients) == 0 {
			hub.cleanupRunning = false
			hub.mu.Unlock()
			log.Println("[display] no clients, stopping cleanup goroutine")
			return
		}
		hub.mu.Unlock()

		now := time.Now()
		var toRemove []*websocket.Conn

		hub.mu.RLock()
		for conn, client := range hub.clients {
			client.writeMux.Lock()
			stale := now.Sub(client.lastPong) > 90*time.Second
			client.writeMux.Unlock()
			if stale {
				toRemove = append(toRemove, conn)
			}
		}
		hub.mu.RUnlock()

		if len(toRemove) == 0 {
			continue
		}

		hub.mu.Lock()
		for _, conn := range toRemove {
			if client, exists := hub.clients[conn]; exists {
				client.writeMux.Lock()
				if !client.closed {
					client.closed = true
					close(client.closeChan)
				}
				client.writeMux.Unlock()
				delete(hub.clients, conn)
				conn.Close()
				log.Printf("[display] %s cleaned up", client.id)
			}
		}
		log.Printf("[display] cleaned %d dead clients, remaining: %d", len(toRemove), len(hub.clients))
		hub.mu.Unlock()
	}
}

func (hub *DisplayHub) buildMessage() ([]byte, error) {
	ctx := context.Background()
	state, err := hub.queue.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue state: %w", err)
	}
	tickets, waiting, err := hub.queue.Tickets(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("queue tickets: %w", err)
	}

	return json.Marshal(map[string]interface{}{
		"type":         "queue_update",
		"state":        state,
		"tickets":      tickets,
		"waitingCount": waiting,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

func (hub *DisplayHub) broadcastNow() {
	message, err := hub.buildMessage()
	if err != nil {
		log.Printf("[display] broadcast failed: %v", err)
		return
	}

	hub.mu.RLock()
	clients := make([]*displayClient, 0, len(hub.clients))
	for _, client := range hub.clients {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		hub.writeToClient(client, message)
	}
}

func (hub *DisplayHub) writeToClient(client *displayClient, message []byte) {
	client.writeMux.Lock()
	defer client.writeMux.Unlock()

	if client.closed {
		return
	}

	client.conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		log.Printf("[display] %s write error: %v", client.id, err)
		client.closed = true
		select {
		case <-client.closeChan:
		default:
			close(client.closeChan)
		}

		go func(conn *websocket.Conn, id string) {
			hub.mu.Lock()
			delete(hub.clients, conn)
			hub.mu.Unlock()
			conn.Close()
			log.Printf("[display] %s removed after write error", id)
		}(client.conn, client.id)
	}
}
