package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
)

// GetTransactionByHash loads a transaction with its witnesses,
// notifications, and ordered state values.
func (r *Repository) GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	var tx models.Transaction
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE hash = ?", txColumns)
	if err := r.ro.GetContext(ctx, &tx, query, hash); err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", hash, err)
	}

	witnesses, err := r.transactionWitnesses(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Witnesses = witnesses

	notifications, err := r.TransactionNotifications(ctx, tx.Hash)
	if err != nil {
		return nil, err
	}
	tx.Notifications = notifications

	return &tx, nil
}

// GetSenderTransactions pages through a sender's transactions.
func (r *Repository) GetSenderTransactions(ctx context.Context, sender string, page, perPage uint32, sortBy, order string) ([]models.Transaction, error) {
	clause, err := orderClause(sortBy, order, []string{"id"})
	if err != nil {
		return nil, err
	}

	txs := []models.Transaction{}
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE sender = ? %s LIMIT ? OFFSET ?", txColumns, clause)
	if err := r.ro.SelectContext(ctx, &txs, query, sender, perPage, page*perPage); err != nil {
		return nil, fmt.Errorf("failed to load sender transactions: %w", err)
	}
	return txs, nil
}

// GetAddressTransferTransactions finds transactions carrying the address
// (in its persisted base64 ByteString form) in any notification state
// value, enriched with block time and full notifications for the transfer
// view.
func (r *Repository) GetAddressTransferTransactions(ctx context.Context, addressBase64 string, page, perPage uint32, sortBy, order string) ([]models.Transaction, error) {
	clause, err := orderClause(sortBy, order, []string{"id"})
	if err != nil {
		return nil, err
	}

	txs := []models.Transaction{}
	query := fmt.Sprintf(`
		SELECT t.id, t.hash, t.block_index, t.vm_state, t.size, t.version, t.nonce, t.sender,
			t.sysfee, t.netfee, t.valid_until, t.signers, t.script,
			COALESCE(t.stack_result, '') AS stack_result
		FROM transactions t
		JOIN transaction_notifications tn ON t.hash = tn.transaction_hash
		JOIN transaction_notification_state_values nsv ON tn.id = nsv.transaction_notification_id
		WHERE nsv.value = ?
		GROUP BY t.hash %s LIMIT ? OFFSET ?`, clause)
	if err := r.ro.SelectContext(ctx, &txs, query, addressBase64, perPage, page*perPage); err != nil {
		return nil, fmt.Errorf("failed to load address transfers: %w", err)
	}

	for i := range txs {
		time, err := r.BlockTime(ctx, txs[i].BlockIndex)
		if err != nil {
			return nil, err
		}
		txs[i].Timestamp = time

		notifications, err := r.TransactionNotifications(ctx, txs[i].Hash)
		if err != nil {
			return nil, err
		}
		txs[i].Notifications = notifications
	}
	return txs, nil
}
