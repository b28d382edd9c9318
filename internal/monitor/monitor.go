package monitor

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// MongoPinger - адаптер над клиентом mongo
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// Monitor периодически пингует хранилище, результат отдается в /health
type Monitor struct {
	pinger   Pinger
	logger   *zap.Logger
	interval time.Duration

	mu        sync.RWMutex
	healthy   bool
	checkedAt time.Time

	wg   sync.WaitGroup
	stop chan struct{}
}

func New(pinger Pinger, logger *zap.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		pinger:   pinger,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.check(ctx) // Первая проверка сразу, не дожидаясь тикера

	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Monitor) Stop() {
	close(m.stop)
	m.wg.Wait()
	m.logger.Info("Store monitor stopped")
}

// Healthy возвращает результат и время последней проверки
func (m *Monitor) Healthy() (bool, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy, m.checkedAt
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := m.pinger.Ping(pingCtx)
	if err != nil {
		m.logger.Error("store ping failed", zap.Error(err))
	}

	m.mu.Lock()
	m.healthy = err == nil
	m.checkedAt = time.Now().UTC()
	m.mu.Unlock()
}
