package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"
)

// Pinger проверка доступности сервера
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Monitor периодически проверяет связь с сервером и сообщает о смене состояния
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	log      *slog.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func(online bool)
}

func NewMonitor(pinger Pinger, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		pinger:   pinger,
		interval: interval,
		log:      log.With(slog.String("component", "connectivity")),
	}
}

// Online последнее известное состояние связи
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// OnChange регистрирует обработчик смены состояния
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Check выполняет одну проверку и уведомляет подписчиков, если состояние изменилось
func (m *Monitor) Check(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.pinger.HealthCheck(checkCtx)
	now := err == nil
	was := m.online.Swap(now)
	if was == now {
		return now
	}

	if now {
		m.log.Info("server reachable")
	} else {
		m.log.Warn("server unreachable", slog.String("error", err.Error()))
	}

	m.mu.Lock()
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(now)
	}
	return now
}

// Run проверяет связь сразу и затем с заданным интервалом до отмены ctx
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
