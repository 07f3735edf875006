// Package onebot is a minimal OneBot v11 forward-websocket client: it reads
// message events off one connection and pushes action frames back.
package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/errs"
)

const (
	initialBackoff = time.Second
	maxBackoff     = time.Minute
	writeTimeout   = 10 * time.Second
)

// Event is an incoming OneBot v11 event frame. Non-message frames keep
// PostType set so the loop can skip them.
type Event struct {
	PostType    string `json:"post_type"`
	MessageType string `json:"message_type"`
	UserID      int64  `json:"user_id"`
	GroupID     int64  `json:"group_id"`
	RawMessage  string `json:"raw_message"`
	SelfID      int64  `json:"self_id"`
	Sender      struct {
		Nickname string `json:"nickname"`
		Card     string `json:"card"`
	} `json:"sender"`
}

// IsGroup reports whether the event came from a group chat.
func (e Event) IsGroup() bool { return e.MessageType == "group" }

// SenderName prefers the group card over the account nickname.
func (e Event) SenderName() string {
	if e.Sender.Card != "" {
		return e.Sender.Card
	}
	return e.Sender.Nickname
}

type actionFrame struct {
	Action string `json:"action"`
	Params any    `json:"params"`
}

type sendMsgParams struct {
	MessageType string `json:"message_type"`
	UserID      int64  `json:"user_id,omitempty"`
	GroupID     int64  `json:"group_id,omitempty"`
	Message     string `json:"message"`
}

// Handler consumes one message event. It runs on its own goroutine.
type Handler func(ctx context.Context, client *Client, event Event)

// Client dials the OneBot implementation and pumps events to the handler.
type Client struct {
	wsURL       string
	accessToken string
	handler     Handler

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(wsURL, accessToken string, handler Handler) *Client {
	return &Client{
		wsURL:       wsURL,
		accessToken: accessToken,
		handler:     handler,
	}
}

// Run keeps the connection alive until the context is cancelled,
// reconnecting with exponential backoff after any read failure.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn(ctx, "onebot connection lost, reconnecting",
			slog.Any("error", errs.Loggable(err)),
			slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	if c.accessToken != "" {
		header.Set("Authorization", "Bearer "+c.accessToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		if resp != nil {
			return errs.Wrapf(err, "dial onebot %s (status %d)", c.wsURL, resp.StatusCode)
		}
		return errs.Wrapf(err, "dial onebot %s", c.wsURL)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	logging.Info(ctx, "onebot connected", slog.String("ws_url", c.wsURL))

	// Unblock ReadMessage when the context dies.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return errs.Wrap(err, "read onebot event")
		}

		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			logging.Warn(ctx, "undecodable onebot frame", slog.Any("error", errs.Loggable(err)))
			continue
		}
		if event.PostType != "message" || event.RawMessage == "" {
			continue
		}
		go c.handler(ctx, c, event)
	}
}

// Reply sends a text message back to where the event came from.
func (c *Client) Reply(ctx context.Context, event Event, text string) error {
	params := sendMsgParams{Message: text}
	if event.IsGroup() {
		params.MessageType = "group"
		params.GroupID = event.GroupID
	} else {
		params.MessageType = "private"
		params.UserID = event.UserID
	}
	return c.send(ctx, actionFrame{Action: "send_msg", Params: params})
}

func (c *Client) send(ctx context.Context, frame actionFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("onebot connection not established")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(frame); err != nil {
		return errs.Wrap(err, "write onebot action")
	}
	return nil
}
