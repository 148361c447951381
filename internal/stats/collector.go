// Package stats caches the chain and network aggregates so the hot stat
// endpoints never run the heavy queries inline.
package stats

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/repository"
)

const refreshInterval = 3 * time.Second

// Collector periodically recomputes the aggregate snapshots. A refresh only
// runs when the block watermark moved past the last computed one, so an
// idle store costs a single max(id) probe per tick.
type Collector struct {
	repo *repository.Repository
	log  *zap.SugaredLogger

	mu        sync.RWMutex
	chain     models.ChainStats
	network   models.NetworkStats
	watermark uint64
}

func NewCollector(repo *repository.Repository, log *zap.SugaredLogger) *Collector {
	return &Collector{repo: repo, log: log}
}

// Start primes the snapshots and keeps them fresh until the context is
// cancelled. It blocks; run it on its own goroutine.
func (c *Collector) Start(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// Chain returns the cached whole-chain aggregates.
func (c *Collector) Chain() models.ChainStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chain
}

// Network returns the cached network activity aggregates.
func (c *Collector) Network() models.NetworkStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.network
}

func (c *Collector) refresh(ctx context.Context) {
	watermark, err := c.repo.BlockWatermark(ctx)
	if err != nil {
		c.log.Warnw("failed to read block watermark", "error", err)
		return
	}

	c.mu.RLock()
	current := c.watermark
	primed := c.chain.TotalBlocks > 0
	c.mu.RUnlock()
	if primed && watermark <= current {
		return
	}

	chain, err := c.repo.ChainStats(ctx)
	if err != nil {
		c.log.Warnw("failed to refresh chain stats", "error", err)
		return
	}
	network, err := c.repo.NetworkStats(ctx)
	if err != nil {
		c.log.Warnw("failed to refresh network stats", "error", err)
		return
	}

	c.mu.Lock()
	c.chain = chain
	c.network = network
	c.watermark = watermark
	c.mu.Unlock()

	c.log.Debugw("refreshed stats", "watermark", watermark,
		"total_blocks", chain.TotalBlocks, "total_transactions", chain.TotalTransactions)
}
