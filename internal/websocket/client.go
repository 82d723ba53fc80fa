// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
	sendBufferSize = 256
)

// Config tunes a Client. Zero fields fall back to DefaultConfig.
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64

	// SendBuffer is the number of outbound frames a client may have queued
	// before the hub treats it as too slow and disconnects it.
	SendBuffer int

	// InboundRate and InboundBurst limit client frames per second.
	// A zero rate disables the limit.
	InboundRate  float64
	InboundBurst int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WriteWait:      writeWait,
		PongWait:       pongWait,
		PingPeriod:     pingPeriod,
		MaxMessageSize: maxMessageSize,
		SendBuffer:     sendBufferSize,
		InboundRate:    20,
		InboundBurst:   40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.InboundRate > 0 && c.InboundBurst <= 0 {
		c.InboundBurst = int(c.InboundRate)
		if c.InboundBurst < 1 {
			c.InboundBurst = 1
		}
	}
	return c
}

// Hub is the part of relay.Hub a client drives.
type Hub interface {
	Register(sender relay.Sender) (relay.ConnID, error)
	Unregister(id relay.ConnID) bool
	Join(id relay.ConnID, room rooms.Name) (bool, error)
	Leave(id relay.ConnID, room rooms.Name) bool
	Send(id relay.ConnID, frame []byte) bool
}

// Publisher accepts raw producer envelopes; *relay.Relay implements it.
type Publisher interface {
	PublishRaw(ctx context.Context, data []byte, opts ...relay.BroadcastOption) relay.Result
}

// Client is a middleman between one websocket connection and the hub.
// It implements relay.Sender: the hub pushes frames into send and closes it
// once the connection has been removed from every room.
type Client struct {
	id      relay.ConnID
	hub     Hub
	pub     Publisher
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	cfg     Config

	ctx       context.Context
	closeOnce sync.Once
}

// NewClient wraps conn. The client is inert until Start.
func NewClient(conn *websocket.Conn, hub Hub, pub Publisher, cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		hub:  hub,
		pub:  pub,
		conn: conn,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
		ctx:  context.Background(),
	}
	if cfg.InboundRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.InboundRate), cfg.InboundBurst)
	}
	return c
}

// ID returns the relay connection id, valid after Start.
func (c *Client) ID() relay.ConnID {
	return c.id
}

// Enqueue implements relay.Sender. It never blocks.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close implements relay.Sender. The write pump drains what is queued,
// sends a close frame and exits.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Start registers the client, greets it, joins the caller's personal room
// when userID is non-empty, and starts the read and write pumps.
// ctx supplies logging fields only; the connection lives until the transport closes.
func (c *Client) Start(ctx context.Context, userID string) error {
	id, err := c.hub.Register(c)
	if err != nil {
		return err
	}
	c.id = id
	c.ctx = logging.ContextWithConnID(ctx, uint64(id))

	c.reply(ServerFrame{Type: TypeWelcome, Data: welcomeData{ConnectionID: uint64(id)}})

	if userID != "" {
		room, err := rooms.New(rooms.CategoryUser, userID)
		if err != nil {
			logging.Ctx(c.ctx).Warn().
				Str("user_id", logging.SanitizeUserID(userID)).
				Err(err).
				Msg("identity not usable as a room id, skipping personal room")
		} else if _, err := c.hub.Join(id, room); err == nil {
			c.reply(ServerFrame{Type: TypeJoined, Room: room})
		}
	}

	logging.Ctx(c.ctx).Info().
		Bool("identified", userID != "").
		Msg("websocket client connected")

	go c.writePump()
	go c.readPump()
	return nil
}

// reply routes a direct response through the hub so it is serialized with
// broadcasts and never sent after the connection has been cleaned up.
func (c *Client) reply(frame ServerFrame) {
	data, err := frame.marshal()
	if err != nil {
		logging.Ctx(c.ctx).Error().Err(err).Str("type", frame.Type).Msg("failed to encode reply")
		return
	}
	c.hub.Send(c.id, data)
}

func (c *Client) replyError(code, message string) {
	metrics.RecordWSError(code)
	c.reply(ServerFrame{Type: TypeError, Data: errorData{Code: code, Message: message}})
}

// readPump pumps frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		_ = c.conn.Close() // best-effort cleanup
		logging.Ctx(c.ctx).Info().Msg("websocket client disconnected")
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logging.Ctx(c.ctx).Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				metrics.RecordWSError("unexpected_close")
				logging.Ctx(c.ctx).Debug().Err(err).Msg("unexpected websocket close")
			} else if errors.Is(err, websocket.ErrReadLimit) {
				metrics.RecordWSError("read_limit")
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.replyError(ErrCodeRateLimited, "too many frames, slow down")
			continue
		}
		if messageType != websocket.TextMessage {
			c.replyError(ErrCodeUnsupported, "only text frames are accepted")
			continue
		}
		c.handleFrame(data)
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.RecordWSError("write")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
