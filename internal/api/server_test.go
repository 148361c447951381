package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shrike-indexer/shrike/internal/ingester"
	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/repository"
)

const (
	testAddress    = "NVg7LjGcUSrgxgjX3zEgqaksfMaiS8Z6e1"
	testAddressB64 = "axI92L7HGGSIUrvHhZXjU2oFj58="
	otherAddress   = "NWcHZ95TNzfVCfvK2AvY5xyEw6ur3oD3wL"
	gasContract    = "0xd2a4cff31913016155e38e474a2c06d08be276cf"
)

var (
	testBlockHash = "0x" + strings.Repeat("ab", 32)
	testTxHash    = "0x" + strings.Repeat("cd", 32)
	missingHash   = "0x" + strings.Repeat("ef", 32)
)

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeStats struct {
	chain   models.ChainStats
	network models.NetworkStats
}

func (f *fakeStats) Chain() models.ChainStats     { return f.chain }
func (f *fakeStats) Network() models.NetworkStats { return f.network }

func newTestServer(t *testing.T) (*Server, *repository.Repository, *fakeRunner) {
	t.Helper()
	repo, err := repository.Open(filepath.Join(t.TempDir(), "shrike.db3"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	runner := &fakeRunner{}
	stats := &fakeStats{
		chain:   models.ChainStats{TotalBlocks: 42},
		network: models.NetworkStats{TotalTransactions: 7},
	}
	return NewServer(0, repo, runner, stats, zap.NewNop().Sugar()), repo, runner
}

func seedChain(t *testing.T, repo *repository.Repository) {
	t.Helper()
	block := models.Block{
		Hash: testBlockHash, Size: 697, MerkleRoot: "0xm", Time: 1700000000000,
		Nonce: "00", NextConsensus: "N", RewardReceiver: testAddress, Reward: 0.5,
		Witnesses: []models.Witness{{Invocation: "aW52", Verification: "dmVy"}},
	}
	empty := models.Block{
		Hash: missingHash, MerkleRoot: "0xm", Time: 1700000100000,
		Nonce: "00", NextConsensus: "N", RewardReceiver: testAddress,
	}
	tx := models.Transaction{
		Hash: testTxHash, BlockIndex: 1, VMState: "HALT", Size: 250,
		Sender: testAddress, SysFee: "100000000", NetFee: "50000000",
		ValidUntil: 5000, Signers: "[]", Script: "40", Timestamp: 1700000000000,
		Witnesses: []models.Witness{{Invocation: "dHg=", Verification: "dHg="}},
		Notifications: []models.Notification{{
			TransactionHash: testTxHash,
			Contract:        gasContract,
			EventName:       "Transfer",
			StateType:       "Array",
			StateValues: []models.StateValue{
				{Type: "ByteString", Value: strptr(testAddressB64)},
				{Type: "Any"},
				{Type: "Integer", Value: strptr("50000000")},
			},
		}},
	}
	require.NoError(t, repo.CommitBatch(context.Background(), []models.Block{block, empty}, []models.Transaction{tx}))
}

func strptr(s string) *string { return &s }

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doGet(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestGetBlock(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/block/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	var block models.Block
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &block))
	assert.Equal(t, testBlockHash, block.Hash)
	assert.Len(t, block.Witnesses, 1)

	rec = doGet(t, s, "/v1/block/"+testBlockHash)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, s, "/v1/block/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Block does not exist.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/block/nonsense")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid block hash.", errorOf(t, rec))
}

func TestGetBlockTransactions(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/block/1/transactions")
	assert.Equal(t, http.StatusOK, rec.Code)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, testTxHash, txs[0].Hash)

	rec = doGet(t, s, "/v1/block/2/transactions")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No transactions for that block.", errorOf(t, rec))
}

func TestGetTransaction(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/transaction/"+testTxHash)
	assert.Equal(t, http.StatusOK, rec.Code)
	var tx models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, testTxHash, tx.Hash)
	require.Len(t, tx.Notifications, 1)
	assert.Len(t, tx.Notifications[0].StateValues, 3)

	rec = doGet(t, s, "/v1/transaction/garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invalid transaction hash.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/transaction/0x"+strings.Repeat("11", 32))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Transaction does not exist.", errorOf(t, rec))
}

func TestSenderTransactions(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/transaction/sender/"+testAddress)
	assert.Equal(t, http.StatusOK, rec.Code)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	assert.Len(t, txs, 1)

	rec = doGet(t, s, "/v1/transaction/sender/not-an-address")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invalid address.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/transaction/sender/"+otherAddress)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No transactions for that sender.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/transaction/sender/"+testAddress+"?sort_by=sender&order=asc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invalid sort_by parameter: sender", errorOf(t, rec))

	rec = doGet(t, s, "/v1/transaction/sender/"+testAddress+"?per_page=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Per_page must be greater than zero.", errorOf(t, rec))
}

func TestAddressTransfers(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/transaction/transfers/"+testAddress)
	assert.Equal(t, http.StatusOK, rec.Code)

	var list models.TxDataList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, testAddress, list.Address)
	require.Len(t, list.AsSender, 1)
	assert.Empty(t, list.AsParticipant)

	data := list.AsSender[0]
	assert.Equal(t, testTxHash, data.TxID)
	assert.Equal(t, uint64(1700000000000), data.Time)
	assert.InDelta(t, 1.0, data.SysFee, 1e-9)
	assert.InDelta(t, 0.5, data.NetFee, 1e-9)
	require.Len(t, data.NEP17Transfers, 1)
	assert.Equal(t, testAddress, data.NEP17Transfers[0].From)
	assert.Equal(t, "null", data.NEP17Transfers[0].To)
	assert.InDelta(t, 0.5, data.NEP17Transfers[0].Amount, 1e-9)

	rec = doGet(t, s, "/v1/transaction/transfers/"+otherAddress)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No transfers for that sender.", errorOf(t, rec))
}

func TestBalanceHistory(t *testing.T) {
	s, repo, _ := newTestServer(t)
	require.NoError(t, repo.UpsertDailyAddressBalances(context.Background(), []models.DailyAddressBalance{
		{BlockIndex: 1, Address: testAddress, TokenContract: gasContract, Balance: 500, Timestamp: 1700000000000},
	}))

	rec := doGet(t, s, "/v1/balance-history/"+testAddress+"/"+gasContract+"?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []models.DailyAddressBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(500), rows[0].Balance)

	rec = doGet(t, s, "/v1/balance-history/"+testAddress+"/"+gasContract)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The 'date_init' parameter is required.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/balance-history/"+testAddress+"/"+gasContract+"?date_init=2023-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The 'date_end' parameter is required.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/balance-history/"+testAddress+"/0xother?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No balances for that address/token.", errorOf(t, rec))

	rec = doGet(t, s, "/v1/balance-history/bogus/"+gasContract+"?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invalid address.", errorOf(t, rec))
}

func TestPriceHistory(t *testing.T) {
	s, repo, _ := newTestServer(t)
	require.NoError(t, repo.UpsertDailyTokenPrices(context.Background(), []models.DailyTokenPrice{
		{BlockIndex: 700001, TokenContract: gasContract, Price: 3.21, Timestamp: 1700000000000},
	}))

	rec := doGet(t, s, "/v1/tokens/"+gasContract+"/price-history?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []models.DailyTokenPrice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 3.21, rows[0].Price)

	rec = doGet(t, s, "/v1/tokens/0xother/price-history?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No price for that token.", errorOf(t, rec))
}

func TestContractUsage(t *testing.T) {
	s, repo, _ := newTestServer(t)
	seedChain(t, repo)

	rec := doGet(t, s, "/v1/contracts/"+gasContract+"/daily-usage?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []models.DailyContractUsage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(1), rows[0].Usage)

	rec = doGet(t, s, "/v1/contracts/0xother/daily-usage?date_init=2023-01-01&date_end=2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No contract usage for that token.", errorOf(t, rec))
}

func TestStatsEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doGet(t, s, "/v1/stat")
	assert.Equal(t, http.StatusOK, rec.Code)
	var chain models.ChainStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chain))
	assert.Equal(t, uint64(42), chain.TotalBlocks)

	rec = doGet(t, s, "/v1/network-statistics")
	assert.Equal(t, http.StatusOK, rec.Code)
	var network models.NetworkStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &network))
	assert.Equal(t, uint64(7), network.TotalTransactions)
}

func TestIndexerRun(t *testing.T) {
	s, _, runner := newTestServer(t)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/indexer/run", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := post()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", strings.TrimSpace(rec.Body.String()))
	assert.Equal(t, 1, runner.calls)

	runner.err = ingester.ErrAlreadyRunning
	rec = post()
	assert.Equal(t, http.StatusConflict, rec.Code)

	runner.err = errors.New("node unreachable")
	rec = post()
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to run indexer", errorOf(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/stat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
