package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
)

// nativeContractCount covers the protocol contracts that exist without a
// Deploy notification.
const nativeContractCount = 9

// BlockWatermark returns max(blocks.id) on the read pool; the stats
// refresher uses it to skip recomputation when nothing new landed.
func (r *Repository) BlockWatermark(ctx context.Context) (uint64, error) {
	var id uint64
	if err := r.ro.GetContext(ctx, &id, "SELECT COALESCE(max(id), 0) FROM blocks"); err != nil {
		return 0, fmt.Errorf("failed to read block watermark: %w", err)
	}
	return id, nil
}

// ChainStats recomputes the whole-chain aggregates.
func (r *Repository) ChainStats(ctx context.Context) (models.ChainStats, error) {
	var stats models.ChainStats

	if err := r.ro.GetContext(ctx, &stats.TotalBlocks,
		"SELECT COALESCE(max(id), 0) FROM blocks"); err != nil {
		return stats, fmt.Errorf("failed to count blocks: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.TotalTransactions,
		"SELECT COALESCE(max(id), 0) FROM transactions"); err != nil {
		return stats, fmt.Errorf("failed to count transactions: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.TotalSysFee,
		"SELECT COALESCE(sum(sysfee), 0) FROM transactions"); err != nil {
		return stats, fmt.Errorf("failed to sum sysfee: %w", err)
	}
	stats.TotalSysFee /= neo.GASPrecision
	if err := r.ro.GetContext(ctx, &stats.TotalTransfers,
		"SELECT count(*) FROM transaction_notifications WHERE event_name = 'Transfer'"); err != nil {
		return stats, fmt.Errorf("failed to count transfers: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.TotalSenders,
		"SELECT COUNT(DISTINCT sender) FROM transactions"); err != nil {
		return stats, fmt.Errorf("failed to count senders: %w", err)
	}
	var deployed uint64
	if err := r.ro.GetContext(ctx, &deployed, "SELECT count(*) FROM contracts"); err != nil {
		return stats, fmt.Errorf("failed to count contracts: %w", err)
	}
	stats.TotalContracts = deployed + nativeContractCount

	return stats, nil
}

// NetworkStats recomputes the totals plus the trailing 7-day activity
// window. The window compares block time (milliseconds) against now-7d.
func (r *Repository) NetworkStats(ctx context.Context) (models.NetworkStats, error) {
	var stats models.NetworkStats

	if err := r.ro.GetContext(ctx, &stats.TotalTransactions,
		"SELECT COALESCE(max(id), 0) FROM transactions"); err != nil {
		return stats, fmt.Errorf("failed to count transactions: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.TotalAddresses,
		"SELECT COUNT(DISTINCT sender) FROM transactions"); err != nil {
		return stats, fmt.Errorf("failed to count addresses: %w", err)
	}
	var deployed uint64
	if err := r.ro.GetContext(ctx, &deployed, "SELECT count(*) FROM contracts"); err != nil {
		return stats, fmt.Errorf("failed to count contracts: %w", err)
	}
	stats.TotalContracts = deployed + nativeContractCount

	if err := r.ro.GetContext(ctx, &stats.CurrentWeekTransactions, `
		SELECT count(*) FROM transactions t
		JOIN blocks b ON b.id = t.block_index
		WHERE b.time >= strftime('%s', 'now', '-7 days') * 1000`); err != nil {
		return stats, fmt.Errorf("failed to count weekly transactions: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.CurrentWeekAddresses, `
		SELECT COUNT(DISTINCT t.sender) FROM transactions t
		JOIN blocks b ON b.id = t.block_index
		WHERE b.time >= strftime('%s', 'now', '-7 days') * 1000`); err != nil {
		return stats, fmt.Errorf("failed to count weekly addresses: %w", err)
	}
	if err := r.ro.GetContext(ctx, &stats.CurrentWeekContracts, `
		SELECT count(*) FROM contracts c
		JOIN blocks b ON b.id = c.block_index
		WHERE b.time >= strftime('%s', 'now', '-7 days') * 1000`); err != nil {
		return stats, fmt.Errorf("failed to count weekly contracts: %w", err)
	}

	return stats, nil
}
