package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
)

// GetBlockByID loads a block row and its witnesses by height.
func (r *Repository) GetBlockByID(ctx context.Context, id uint64) (*models.Block, error) {
	var block models.Block
	if err := r.ro.GetContext(ctx, &block, "SELECT * FROM blocks WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to load block %d: %w", id, err)
	}
	witnesses, err := r.blockWitnesses(ctx, block.ID)
	if err != nil {
		return nil, err
	}
	block.Witnesses = witnesses
	return &block, nil
}

// GetBlockByHash loads a block row and its witnesses by hash.
func (r *Repository) GetBlockByHash(ctx context.Context, hash string) (*models.Block, error) {
	var block models.Block
	if err := r.ro.GetContext(ctx, &block, "SELECT * FROM blocks WHERE hash = ?", hash); err != nil {
		return nil, fmt.Errorf("failed to load block %s: %w", hash, err)
	}
	witnesses, err := r.blockWitnesses(ctx, block.ID)
	if err != nil {
		return nil, err
	}
	block.Witnesses = witnesses
	return &block, nil
}

// GetBlockTransactions lists the transactions committed in a block.
func (r *Repository) GetBlockTransactions(ctx context.Context, blockID uint64) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE block_index = ? ORDER BY id", txColumns)
	if err := r.ro.SelectContext(ctx, &txs, query, blockID); err != nil {
		return nil, fmt.Errorf("failed to load block transactions: %w", err)
	}
	return txs, nil
}
