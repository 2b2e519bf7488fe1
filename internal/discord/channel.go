// Package discord owns the single connection to Discord Rich Presence.
package discord

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"nowcast/internal/core"
)

// ErrNotConnected is returned by Apply when the channel is disconnected.
// Callers are expected to call EnsureConnected first.
var ErrNotConnected = errors.New("presence channel not connected")

// Transport is the underlying presence connection. Exactly one call runs
// at a time; the Channel serializes them.
type Transport interface {
	Connect() error
	Update(params core.UpdateParams) error
	Clear() error
	Close() error
}

// Channel serializes every connect, update and clear against the single
// process-wide presence connection. The lock is held for the duration of
// one operation, never across operations. Any failing call marks the
// channel disconnected; the next EnsureConnected attempts one reconnect.
type Channel struct {
	transport Transport
	logger    *zap.Logger

	mu        sync.Mutex
	connected bool
}

func NewChannel(transport Transport, logger *zap.Logger) *Channel {
	return &Channel{
		transport: transport,
		logger:    logger,
	}
}

// EnsureConnected returns true if the channel is usable, attempting one
// connect when it is not. It never returns an error; a failed attempt
// leaves the channel disconnected.
func (c *Channel) EnsureConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return true
	}

	c.logger.Info("Connecting to Discord")

	if err := c.transport.Connect(); err != nil {
		c.logger.Warn("Discord connection failed", zap.Error(err))
		return false
	}

	c.connected = true
	c.logger.Info("Connected to Discord")
	return true
}

// Apply sends one presence update. The failure is returned to the caller
// and the channel transitions to disconnected; there is no in-request
// retry.
func (c *Channel) Apply(params core.UpdateParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	if err := c.transport.Update(params); err != nil {
		c.connected = false
		return err
	}

	return nil
}

// Clear removes the displayed presence. Best effort: failures are
// swallowed after marking the channel disconnected.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return
	}

	if err := c.transport.Clear(); err != nil {
		c.connected = false
		c.logger.Warn("Presence clear failed", zap.Error(err))
		return
	}

	c.logger.Info("Presence cleared")
}

// Shutdown clears the presence and releases the connection, swallowing
// all errors.
func (c *Channel) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		if err := c.transport.Clear(); err != nil {
			c.logger.Debug("Presence clear on shutdown failed", zap.Error(err))
		}
	}

	if err := c.transport.Close(); err != nil {
		c.logger.Debug("Transport close failed", zap.Error(err))
	}

	c.connected = false
}

// Connected reports the channel state without connecting.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
