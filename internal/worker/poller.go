// Package worker - фоновые задачи клиента.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc должна выходить сразу после отмены ctx
type CheckFunc func(ctx context.Context) bool

type Poller struct {
	check    CheckFunc
	report   func(online bool)
	interval time.Duration
	logger   *zap.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewPoller(check CheckFunc, report func(online bool), interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		check:    check,
		report:   report,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start: первая проверка сразу, дальше по тикеру
func (p *Poller) Start(ctx context.Context) {
	p.logger.Debug("Starting health poller", zap.Duration("interval", p.interval))

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop можно вызывать повторно
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
	p.logger.Debug("Health poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	// Отменяем проверку, если поллер остановлен посреди запроса
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.stop:
			cancel()
		case <-checkCtx.Done():
		}
	}()

	online := p.check(checkCtx)

	select {
	case <-p.stop:
		return
	default:
	}
	if !online {
		p.logger.Debug("API unreachable")
	}
	p.report(online)
}
