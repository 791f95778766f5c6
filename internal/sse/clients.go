// Package sse provides Server-Sent Events client management for real-time communication.
package sse

import (
	"sync"

	"github.com/dleads/stakeados/internal/model"
)

// Client subscribes to the save/version events of a single article draft.
type Client struct {
	Msg       chan string
	ArticleID model.ArticleID
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	close(client.Msg)
}

// Broadcast fans a message out to every subscriber of the article. Slow
// clients are skipped rather than blocking the save path.
func (s *SSEClients) Broadcast(articleID model.ArticleID, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.ArticleID == articleID {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}
