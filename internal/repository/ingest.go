package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
)

// CommitBatch writes a range's blocks and transactions in one database
// transaction: block rows with their witnesses, transaction rows with
// their witnesses, notifications and ordered state values, plus the
// per-notification daily_contract_usage increment. Any failure rolls the
// whole batch back so the watermark never advances past a partial range.
func (r *Repository) CommitBatch(ctx context.Context, blocks []models.Block, txs []models.Transaction) error {
	dbtx, err := r.rw.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer dbtx.Rollback()

	insertBlock, err := dbtx.PrepareContext(ctx, `
		INSERT INTO blocks (hash, size, version, merkle_root, time, nonce, speaker, next_consensus, reward, reward_receiver)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare block insert: %w", err)
	}
	defer insertBlock.Close()

	insertWitness, err := dbtx.PrepareContext(ctx, `
		INSERT INTO witnesses (block_index, transaction_id, invocation, verification)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare witness insert: %w", err)
	}
	defer insertWitness.Close()

	insertTx, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transactions (hash, block_index, vm_state, size, version, nonce, sender, sysfee, netfee, valid_until, signers, script, stack_result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer insertTx.Close()

	insertNotification, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transaction_notifications (transaction_hash, contract, event_name, state_type)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare notification insert: %w", err)
	}
	defer insertNotification.Close()

	insertStateValue, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transaction_notification_state_values (transaction_notification_id, type, value)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare state value insert: %w", err)
	}
	defer insertStateValue.Close()

	upsertUsage, err := dbtx.PrepareContext(ctx, `
		INSERT INTO daily_contract_usage (date, contract, usage)
		VALUES (strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, 1)
		ON CONFLICT (date, contract) DO UPDATE SET usage = usage + 1`)
	if err != nil {
		return fmt.Errorf("failed to prepare usage upsert: %w", err)
	}
	defer upsertUsage.Close()

	for _, block := range blocks {
		res, err := insertBlock.ExecContext(ctx,
			block.Hash, block.Size, block.Version, block.MerkleRoot, block.Time,
			block.Nonce, block.Speaker, block.NextConsensus, block.Reward, block.RewardReceiver)
		if err != nil {
			return fmt.Errorf("failed to insert block %s: %w", block.Hash, err)
		}
		blockID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read block id: %w", err)
		}
		for _, w := range block.Witnesses {
			if _, err := insertWitness.ExecContext(ctx, blockID, nil, w.Invocation, w.Verification); err != nil {
				return fmt.Errorf("failed to insert block witness: %w", err)
			}
		}
	}

	for _, tx := range txs {
		var stackResult any
		if tx.StackRes != "" {
			stackResult = tx.StackRes
		}
		res, err := insertTx.ExecContext(ctx,
			tx.Hash, tx.BlockIndex, tx.VMState, tx.Size, tx.Version, tx.Nonce,
			tx.Sender, tx.SysFee, tx.NetFee, tx.ValidUntil, tx.Signers, tx.Script, stackResult)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.Hash, err)
		}
		txID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}

		for _, w := range tx.Witnesses {
			if _, err := insertWitness.ExecContext(ctx, nil, txID, w.Invocation, w.Verification); err != nil {
				return fmt.Errorf("failed to insert transaction witness: %w", err)
			}
		}

		for _, n := range tx.Notifications {
			res, err := insertNotification.ExecContext(ctx, tx.Hash, n.Contract, n.EventName, n.StateType)
			if err != nil {
				return fmt.Errorf("failed to insert notification: %w", err)
			}
			notificationID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read notification id: %w", err)
			}
			for _, sv := range n.StateValues {
				var value any
				if sv.Value != nil {
					value = *sv.Value
				}
				if _, err := insertStateValue.ExecContext(ctx, notificationID, sv.Type, value); err != nil {
					return fmt.Errorf("failed to insert state value: %w", err)
				}
			}
			if _, err := upsertUsage.ExecContext(ctx, tx.Timestamp, n.Contract); err != nil {
				return fmt.Errorf("failed to upsert contract usage: %w", err)
			}
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// InsertContracts bulk-inserts deploy rows. A hash conflict is a hard
// error: deploy events are unique per contract.
func (r *Repository) InsertContracts(ctx context.Context, contracts []models.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	dbtx, err := r.rw.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin contract insert: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO contracts (block_index, hash, contract_type)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare contract insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range contracts {
		if _, err := stmt.ExecContext(ctx, c.BlockIndex, c.Hash, c.ContractType); err != nil {
			return fmt.Errorf("failed to insert contract %s: %w", c.Hash, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contracts: %w", err)
	}
	return nil
}

// UpsertDailyAddressBalances writes balance rows keyed on
// (date, address, token_contract), last writer wins. The indexer commits
// ranges in ascending height order, so the surviving row is always the
// highest block's.
func (r *Repository) UpsertDailyAddressBalances(ctx context.Context, balances []models.DailyAddressBalance) error {
	if len(balances) == 0 {
		return nil
	}

	dbtx, err := r.rw.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin balance upsert: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO daily_address_balances (block_index, date, address, token_contract, balance)
		VALUES (?, strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, ?, ?)
		ON CONFLICT (date, address, token_contract)
		DO UPDATE SET balance = excluded.balance, block_index = excluded.block_index`)
	if err != nil {
		return fmt.Errorf("failed to prepare balance upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range balances {
		if _, err := stmt.ExecContext(ctx, b.BlockIndex, b.Timestamp, b.Address, b.TokenContract, b.Balance); err != nil {
			return fmt.Errorf("failed to upsert balance for %s: %w", b.Address, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("failed to commit balances: %w", err)
	}
	return nil
}

// UpsertDailyTokenPrices writes price rows keyed on (date, token_contract),
// last writer wins.
func (r *Repository) UpsertDailyTokenPrices(ctx context.Context, prices []models.DailyTokenPrice) error {
	if len(prices) == 0 {
		return nil
	}

	dbtx, err := r.rw.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin price upsert: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO daily_token_price_history (block_index, date, token_contract, price)
		VALUES (?, strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, ?)
		ON CONFLICT (date, token_contract)
		DO UPDATE SET price = excluded.price, block_index = excluded.block_index`)
	if err != nil {
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, p.BlockIndex, p.Timestamp, p.TokenContract, p.Price); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", p.TokenContract, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices: %w", err)
	}
	return nil
}
