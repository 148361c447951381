package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
)

const txColumns = `id, hash, block_index, vm_state, size, version, nonce, sender,
	sysfee, netfee, valid_until, signers, script, COALESCE(stack_result, '') AS stack_result`

// SortError reports a sort_by column outside an endpoint's whitelist. Its
// message is part of the historical API contract.
type SortError struct {
	Column string
}

func (e *SortError) Error() string {
	return "Invalid sort_by parameter: " + e.Column
}

// orderClause validates user-supplied sorting against the endpoint's
// column whitelist. Both empty means no ordering, matching the historical
// behavior.
func orderClause(sortBy, order string, allowed []string) (string, error) {
	if sortBy == "" || order == "" {
		return "", nil
	}
	for _, col := range allowed {
		if sortBy == col {
			return fmt.Sprintf("ORDER BY %s %s", sortBy, order), nil
		}
	}
	return "", &SortError{Column: sortBy}
}

func (r *Repository) blockWitnesses(ctx context.Context, blockID uint64) ([]models.Witness, error) {
	witnesses := []models.Witness{}
	err := r.ro.SelectContext(ctx, &witnesses,
		"SELECT invocation, verification FROM witnesses WHERE block_index = ? ORDER BY id", blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to load block witnesses: %w", err)
	}
	return witnesses, nil
}

func (r *Repository) transactionWitnesses(ctx context.Context, txID uint64) ([]models.Witness, error) {
	witnesses := []models.Witness{}
	err := r.ro.SelectContext(ctx, &witnesses,
		"SELECT invocation, verification FROM witnesses WHERE transaction_id = ? ORDER BY id", txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction witnesses: %w", err)
	}
	return witnesses, nil
}

// TransactionNotifications loads a transaction's notifications with their
// state values in emission order.
func (r *Repository) TransactionNotifications(ctx context.Context, txHash string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.ro.SelectContext(ctx, &notifications, `
		SELECT id, transaction_hash, contract, event_name, state_type
		FROM transaction_notifications WHERE transaction_hash = ? ORDER BY id`, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	for i := range notifications {
		values := []models.StateValue{}
		err := r.ro.SelectContext(ctx, &values, `
			SELECT type, value FROM transaction_notification_state_values
			WHERE transaction_notification_id = ? ORDER BY id`, notifications[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load state values: %w", err)
		}
		notifications[i].StateValues = values
	}
	return notifications, nil
}

// BlockTime returns the millisecond timestamp of a block row.
func (r *Repository) BlockTime(ctx context.Context, blockID uint64) (uint64, error) {
	var time uint64
	if err := r.ro.GetContext(ctx, &time, "SELECT time FROM blocks WHERE id = ?", blockID); err != nil {
		return 0, fmt.Errorf("failed to read block time: %w", err)
	}
	return time, nil
}
