// Package ws pushes newly created replies to readers of a post over
// websocket connections.
package ws

import (
	"context"
	"encoding/json"

	"github.com/pliu/blog/internal/logging"
)

// Event is a payload destined for every reader of one post.
type Event struct {
	PostID  string
	Payload []byte
}

type Hub struct {
	// Registered clients, grouped by the post they watch.
	posts map[string]map[*Client]bool

	// Outbound events from the handlers.
	broadcast chan Event

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed once Run has returned.
	done chan struct{}

	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		posts:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.posts {
				for client := range clients {
					close(client.send)
				}
			}
			h.posts = make(map[string]map[*Client]bool)
			return
		case client := <-h.register:
			clients, ok := h.posts[client.postID]
			if !ok {
				clients = make(map[*Client]bool)
				h.posts[client.postID] = clients
			}
			clients[client] = true
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			for client := range h.posts[event.PostID] {
				select {
				case client.send <- event.Payload:
				default:
					h.remove(client)
				}
			}
		}
	}
}

// Done is closed when the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join registers c unless the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c; after the hub has stopped there is nothing to leave.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.posts[client.postID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
	}
	if len(clients) == 0 {
		delete(h.posts, client.postID)
	}
}

// Publish queues v for every reader of postID. A full queue drops the event
// rather than blocking the request that produced it.
func (h *Hub) Publish(ctx context.Context, postID string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error(ctx, "marshal live event", "error", err)
		return
	}
	select {
	case h.broadcast <- Event{PostID: postID, Payload: payload}:
	default:
		h.logger.Warn(ctx, "live event dropped", "post_id", postID)
	}
}
