package sse

import "testing"

func TestBroadcastTargetsSingleArticle(t *testing.T) {
	clients := NewSSEClients()

	a := &Client{Msg: make(chan string, 1), ArticleID: "article-a"}
	b := &Client{Msg: make(chan string, 1), ArticleID: "article-b"}
	clients.Add(a)
	clients.Add(b)

	clients.Broadcast("article-a", "saved")

	select {
	case msg := <-a.Msg:
		if msg != "saved" {
			t.Errorf("got %q, want %q", msg, "saved")
		}
	default:
		t.Error("subscriber of article-a received nothing")
	}

	select {
	case msg := <-b.Msg:
		t.Errorf("subscriber of article-b received %q", msg)
	default:
	}
}

func TestBroadcastSkipsFullClient(t *testing.T) {
	clients := NewSSEClients()

	full := &Client{Msg: make(chan string, 1), ArticleID: "article-a"}
	full.Msg <- "pending"
	clients.Add(full)

	// Must not block.
	clients.Broadcast("article-a", "saved")

	if got := <-full.Msg; got != "pending" {
		t.Errorf("queued message clobbered: %q", got)
	}
}

func TestDeleteClosesChannel(t *testing.T) {
	clients := NewSSEClients()

	c := &Client{Msg: make(chan string), ArticleID: "article-a"}
	clients.Add(c)
	clients.Delete(c)

	if _, open := <-c.Msg; open {
		t.Error("expected channel closed after Delete")
	}

	clients.Broadcast("article-a", "saved")
}
