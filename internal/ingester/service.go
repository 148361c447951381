// Package ingester drives the block history pipeline: concurrent fetches
// from the node, conversion into store rows, daily aggregate derivation,
// and sequenced commits into the repository.
package ingester

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shrike-indexer/shrike/internal/flamingo"
	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
	"github.com/shrike-indexer/shrike/internal/neorpc"
	"github.com/shrike-indexer/shrike/internal/repository"
)

// ErrAlreadyRunning is returned by Run while another run holds the
// process-wide singleton slot.
var ErrAlreadyRunning = errors.New("an indexing run is already in progress")

// priceGateHeight is the block height before which the price feed has no
// data worth sampling.
const priceGateHeight = 664000

// priceGateMsOfDay is 23:59:40 UTC in milliseconds of day. Every block
// landing strictly after this cutoff gets a price sample.
const priceGateMsOfDay = (23*3600 + 59*60 + 40) * 1000

// NodeClient is the slice of the RPC surface the pipeline needs.
type NodeClient interface {
	GetCurrentHeight(ctx context.Context) (uint64, error)
	FetchFullBlock(ctx context.Context, height uint64) (*neorpc.FullBlock, error)
	FetchFullTransaction(ctx context.Context, tx *neorpc.TransactionResult) (*neorpc.FullTransaction, error)
	GetBalanceOfHistoric(ctx context.Context, block uint64, token, addressHash string) (*neorpc.InvokeResult, error)
}

// PriceClient is the slice of the price feed the pipeline needs.
type PriceClient interface {
	GetPricesFromBlock(ctx context.Context, height uint64) ([]flamingo.Price, error)
}

// Config tunes a Service.
type Config struct {
	// BatchSize is the range width per sync step and the fetch fan-out.
	BatchSize uint64

	// KeepAlive keeps the run following the chain tip after catching up.
	KeepAlive bool

	// KeepAliveInterval is the tip polling period.
	KeepAliveInterval time.Duration
}

type Service struct {
	client NodeClient
	prices PriceClient
	repo   *repository.Repository
	cfg    Config
	log    *zap.SugaredLogger

	running atomic.Bool
}

func NewService(client NodeClient, prices PriceClient, repo *repository.Repository, cfg Config, log *zap.SugaredLogger) *Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 25
	}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = 5 * time.Second
	}
	return &Service{
		client: client,
		prices: prices,
		repo:   repo,
		cfg:    cfg,
		log:    log,
	}
}

// Run synchronizes the store with the chain, batch by batch, up to but not
// including the current height. Only one run may be active per process;
// concurrent calls get ErrAlreadyRunning. A chain height below the store is
// logged and treated as success without touching the store.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	chainHeight, err := s.client.GetCurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chain height: %w", err)
	}
	stored, err := s.repo.LastID(ctx, "blocks")
	if err != nil {
		return err
	}
	if chainHeight < stored {
		s.log.Warnw("chain height below stored height, nothing to do",
			"chain_height", chainHeight, "stored_height", stored)
		return nil
	}

	s.log.Infow("starting sync", "chain_height", chainHeight, "stored_height", stored)

	start := stored + 1
	for start < chainHeight {
		end := min(start+s.cfg.BatchSize, chainHeight)
		if err := s.syncRange(ctx, start, end); err != nil {
			return err
		}
		start = end
	}

	if s.cfg.KeepAlive {
		return s.followTip(ctx, start)
	}
	return nil
}

// followTip polls the chain height and syncs whatever new blocks appeared.
// It only returns when the context is cancelled or a sync fails.
func (s *Service) followTip(ctx context.Context, height uint64) error {
	s.log.Infow("following chain tip", "interval", s.cfg.KeepAliveInterval)
	ticker := time.NewTicker(s.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		chainHeight, err := s.client.GetCurrentHeight(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch chain height: %w", err)
		}
		if chainHeight <= height {
			continue
		}
		if err := s.syncRange(ctx, height, chainHeight); err != nil {
			return err
		}
		height = chainHeight
	}
}

// syncRange runs the full pipeline for heights [start, end): fetch blocks
// and transactions, sample prices, convert, derive daily balances, and
// commit in sequence.
func (s *Service) syncRange(ctx context.Context, start, end uint64) error {
	heights := make([]uint64, 0, end-start)
	for h := start; h < end; h++ {
		heights = append(heights, h)
	}

	fullBlocks, err := fetchParallel(ctx, heights, len(heights), s.client.FetchFullBlock)
	if err != nil {
		return fmt.Errorf("failed to fetch blocks [%d, %d): %w", start, end, err)
	}

	var envelopes []*neorpc.TransactionResult
	for _, fb := range fullBlocks {
		for i := range fb.Block.Tx {
			tx := &fb.Block.Tx[i]
			tx.Timestamp = fb.Block.Time
			tx.BlockHash = fb.Block.Hash
			tx.BlockIndex = fb.Block.Index
			envelopes = append(envelopes, tx)
		}
	}

	fullTxs, err := fetchParallel(ctx, envelopes, len(heights), s.client.FetchFullTransaction)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions [%d, %d): %w", start, end, err)
	}

	prices := s.samplePrices(ctx, fullBlocks)

	blocks := make([]models.Block, 0, len(fullBlocks))
	for _, fb := range fullBlocks {
		block, err := toStoreBlock(fb)
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}

	txs := make([]models.Transaction, 0, len(fullTxs))
	var contracts []models.Contract
	for _, ft := range fullTxs {
		tx, err := toStoreTransaction(ft)
		if err != nil {
			return err
		}
		txs = append(txs, tx)
		contracts = append(contracts, detectContractDeployments(ft)...)
	}

	balances, err := s.deriveDailyBalances(ctx, fullTxs)
	if err != nil {
		return fmt.Errorf("failed to derive balances [%d, %d): %w", start, end, err)
	}

	if err := s.repo.CommitBatch(ctx, blocks, txs); err != nil {
		return err
	}
	if err := s.repo.InsertContracts(ctx, contracts); err != nil {
		return err
	}
	if err := s.repo.UpsertDailyAddressBalances(ctx, balances); err != nil {
		return err
	}
	if err := s.repo.UpsertDailyTokenPrices(ctx, prices); err != nil {
		return err
	}

	s.log.Infow("synced range", "start", start, "end", end,
		"blocks", len(blocks), "transactions", len(txs),
		"contracts", len(contracts), "balances", len(balances), "prices", len(prices))
	return nil
}

// samplePrices pulls feed quotes for every block in the batch that sits
// past the height gate with a timestamp in the end-of-day sampling window,
// stamping each quote with its source block. A feed failure degrades that
// block to an empty sample; price history tolerates gaps.
func (s *Service) samplePrices(ctx context.Context, fullBlocks []*neorpc.FullBlock) []models.DailyTokenPrice {
	var sampled []*neorpc.FullBlock
	for _, fb := range fullBlocks {
		if shouldSamplePrices(fb.Block.Index, fb.Block.Time) {
			sampled = append(sampled, fb)
		}
	}
	if len(sampled) == 0 {
		return nil
	}

	quotes, _ := fetchParallel(ctx, sampled, len(sampled), func(ctx context.Context, fb *neorpc.FullBlock) ([]models.DailyTokenPrice, error) {
		q, err := s.prices.GetPricesFromBlock(ctx, fb.Block.Index)
		if err != nil {
			s.log.Warnw("price fetch failed, skipping sample",
				"block_index", fb.Block.Index, "error", err)
			return nil, nil
		}
		return toStorePrices(q, fb.Block.Index, fb.Block.Time), nil
	})

	var prices []models.DailyTokenPrice
	for _, q := range quotes {
		prices = append(prices, q...)
	}
	return prices
}

func shouldSamplePrices(index, timeMs uint64) bool {
	return index > priceGateHeight && timeMs%millisPerDay > priceGateMsOfDay
}

const millisPerDay = 24 * 3600 * 1000

// balanceProbe is one pending balanceOf lookup produced by a Transfer
// notification party.
type balanceProbe struct {
	blockIndex uint64
	timestamp  uint64
	address    string
	scriptHash string
	token      string
}

// deriveDailyBalances probes the historic balance of both parties of every
// two-sided Transfer notification. Mint and burn style transfers, where a
// party is not a ByteString, are skipped whole and issue no probes. Probes
// run concurrently but results keep notification order, so a later transfer
// of the same address and token wins the daily upsert. Any probe failure
// aborts the range.
func (s *Service) deriveDailyBalances(ctx context.Context, fullTxs []*neorpc.FullTransaction) ([]models.DailyAddressBalance, error) {
	var probes []balanceProbe
	for _, ft := range fullTxs {
		if len(ft.AppLog.Executions) == 0 {
			continue
		}
		for _, n := range ft.AppLog.Executions[0].Notifications {
			if n.EventName != "Transfer" || len(n.State.Value) < 2 {
				continue
			}
			if n.State.Value[0].Type != "ByteString" || n.State.Value[1].Type != "ByteString" {
				continue
			}
			pair := make([]balanceProbe, 0, 2)
			for _, item := range n.State.Value[:2] {
				payload, err := stringValue(item.Value)
				if err != nil {
					break
				}
				addr, err := neo.Base64ToAddress(payload)
				if err != nil {
					break
				}
				hash, err := neo.Base64ToScriptHash(payload)
				if err != nil {
					break
				}
				pair = append(pair, balanceProbe{
					blockIndex: ft.Tx.BlockIndex,
					timestamp:  ft.Tx.Timestamp,
					address:    addr,
					scriptHash: hash,
					token:      n.Contract,
				})
			}
			if len(pair) == 2 {
				probes = append(probes, pair...)
			}
		}
	}
	if len(probes) == 0 {
		return nil, nil
	}

	results, err := fetchParallel(ctx, probes, len(probes), func(ctx context.Context, p balanceProbe) (*neorpc.InvokeResult, error) {
		return s.client.GetBalanceOfHistoric(ctx, p.blockIndex, p.token, p.scriptHash)
	})
	if err != nil {
		return nil, err
	}

	balances := make([]models.DailyAddressBalance, 0, len(probes))
	for i, p := range probes {
		balances = append(balances, models.DailyAddressBalance{
			BlockIndex:    p.blockIndex,
			Address:       p.address,
			TokenContract: p.token,
			Balance:       parseBalanceStack(results[i]),
			Timestamp:     p.timestamp,
		})
	}
	return balances, nil
}

// fetchParallel fans fn out over items with at most width in flight,
// keeping results in item order. The first error wins and the rest of the
// batch is discarded.
func fetchParallel[T, R any](ctx context.Context, items []T, width int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if width < 1 {
		width = 1
	}
	results := make([]R, len(items))
	sem := make(chan struct{}, width)

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r, err := fn(ctx, item)
			if err != nil {
				once.Do(func() { firstErr = err })
				return
			}
			results[i] = r
		}(i, item)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
