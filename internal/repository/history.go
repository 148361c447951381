package repository

import (
	"context"
	"fmt"

	"github.com/shrike-indexer/shrike/internal/models"
)

var historySortColumns = []string{"id", "date"}

// GetAddressBalanceHistory pages an address's daily balances for one token
// within an inclusive date range.
func (r *Repository) GetAddressBalanceHistory(ctx context.Context, address, token string, page, perPage uint32, sortBy, order, dateInit, dateEnd string) ([]models.DailyAddressBalance, error) {
	clause, err := orderClause(sortBy, order, historySortColumns)
	if err != nil {
		return nil, err
	}

	balances := []models.DailyAddressBalance{}
	query := fmt.Sprintf(`
		SELECT block_index, date, address, token_contract, balance
		FROM daily_address_balances
		WHERE address = ? AND token_contract = ? AND date BETWEEN ? AND ?
		%s LIMIT ? OFFSET ?`, clause)
	if err := r.ro.SelectContext(ctx, &balances, query, address, token, dateInit, dateEnd, perPage, page*perPage); err != nil {
		return nil, fmt.Errorf("failed to load balance history: %w", err)
	}
	return balances, nil
}

// GetTokenPriceHistory pages a token's daily prices within an inclusive
// date range.
func (r *Repository) GetTokenPriceHistory(ctx context.Context, token string, page, perPage uint32, sortBy, order, dateInit, dateEnd string) ([]models.DailyTokenPrice, error) {
	clause, err := orderClause(sortBy, order, historySortColumns)
	if err != nil {
		return nil, err
	}

	prices := []models.DailyTokenPrice{}
	query := fmt.Sprintf(`
		SELECT block_index, date, token_contract, price
		FROM daily_token_price_history
		WHERE token_contract = ? AND date BETWEEN ? AND ?
		%s LIMIT ? OFFSET ?`, clause)
	if err := r.ro.SelectContext(ctx, &prices, query, token, dateInit, dateEnd, perPage, page*perPage); err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return prices, nil
}

// GetContractDailyUsage pages a contract's daily notification counts
// within an inclusive date range.
func (r *Repository) GetContractDailyUsage(ctx context.Context, contract string, page, perPage uint32, sortBy, order, dateInit, dateEnd string) ([]models.DailyContractUsage, error) {
	clause, err := orderClause(sortBy, order, historySortColumns)
	if err != nil {
		return nil, err
	}

	usage := []models.DailyContractUsage{}
	query := fmt.Sprintf(`
		SELECT date, contract, usage
		FROM daily_contract_usage
		WHERE contract = ? AND date BETWEEN ? AND ?
		%s LIMIT ? OFFSET ?`, clause)
	if err := r.ro.SelectContext(ctx, &usage, query, contract, dateInit, dateEnd, perPage, page*perPage); err != nil {
		return nil, fmt.Errorf("failed to load contract usage: %w", err)
	}
	return usage, nil
}
