// Package cache keeps business settings in memory and reloads them when the
// settings table changes, using PostgreSQL LISTEN/NOTIFY.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockflow/internal/config"
	"stockflow/pkg/logger"
)

// SettingsChannel is notified by the settings table trigger with the changed key.
const SettingsChannel = "settings_changed"

// Loader reads the raw settings table.
type Loader interface {
	Load(ctx context.Context) (map[string]string, error)
}

// Listener receives every reloaded settings value.
type Listener func(ctx context.Context, s config.Settings)

// SettingsCache provides thread-safe access to the current settings with
// invalidation via NOTIFY instead of TTL polling.
type SettingsCache struct {
	pool   *pgxpool.Pool
	loader Loader

	mu       sync.RWMutex
	current  config.Settings
	loadedAt time.Time
	reloads  int

	listeners   []Listener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewSettingsCache creates a cache holding the default settings until the
// first load. pool may be nil when only Reload is used.
func NewSettingsCache(pool *pgxpool.Pool, loader Loader) *SettingsCache {
	return &SettingsCache{
		pool:    pool,
		loader:  loader,
		current: config.DefaultSettings(),
	}
}

// Start loads the settings and begins listening for changes.
func (c *SettingsCache) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.Reload(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load settings: %w", err)
	}

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "settings cache started")
	return nil
}

// Stop gracefully stops the listener.
func (c *SettingsCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "settings cache stopped")
}

// Reload reads the settings table and publishes the result to listeners.
func (c *SettingsCache) Reload(ctx context.Context) error {
	values, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}
	settings := config.FromSettings(ctx, values)

	c.mu.Lock()
	c.current = settings
	c.loadedAt = time.Now()
	c.reloads++
	c.mu.Unlock()

	c.notify(ctx, settings)
	return nil
}

// Current returns the last loaded settings.
func (c *SettingsCache) Current() config.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// OnChange registers a callback for reloaded settings.
func (c *SettingsCache) OnChange(listener Listener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// notify calls listeners in order; a panicking listener does not stop the rest.
func (c *SettingsCache) notify(ctx context.Context, settings config.Settings) {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()

	for _, listener := range c.listeners {
		func(l Listener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "settings listener panic recovered", "panic", r)
				}
			}()
			l(ctx, settings)
		}(listener)
	}
}

// listenLoop keeps a dedicated connection subscribed to SettingsChannel.
func (c *SettingsCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+SettingsChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// Changes made while the connection was down are picked up here.
		if err := c.Reload(c.ctx); err != nil && c.ctx.Err() == nil {
			logger.Error(c.ctx, "failed to reload settings", "error", err)
		}

		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks on NOTIFY until the connection breaks or the cache stops.
func (c *SettingsCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
				continue
			}
			logger.Warn(c.ctx, "settings listener connection lost", "error", err)
			return
		}

		logger.Debug(c.ctx, "settings changed", "key", notification.Payload)
		if err := c.Reload(c.ctx); err != nil {
			logger.Error(c.ctx, "failed to reload settings", "error", err)
		}
	}
}

func (c *SettingsCache) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}

// CacheStats describes the cache state.
type CacheStats struct {
	LoadedAt time.Time
	Reloads  int
}

// GetStats returns current cache statistics.
func (c *SettingsCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{LoadedAt: c.loadedAt, Reloads: c.reloads}
}
