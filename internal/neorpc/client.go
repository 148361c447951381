// Package neorpc is a thin typed client for the Neo N3 JSON-RPC interface,
// covering the handful of methods the indexer drives: chain height, verbose
// blocks, application logs, and historic contract invocation.
package neorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string  `json:"jsonrpc"`
	ID      int     `json:"id"`
	Method  string  `json:"method"`
	Params  []Param `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []Param, result any) error {
	if params == nil {
		params = []Param{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s failed: %w", method, rpcResp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetCurrentHeight returns the node's block count.
func (c *Client) GetCurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.call(ctx, "getblockcount", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// GetBlock fetches a verbose block by height.
func (c *Client) GetBlock(ctx context.Context, height uint64) (*BlockResult, error) {
	var block BlockResult
	if err := c.call(ctx, "getblock", []Param{Uint(height), Uint(1)}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetBlockAppLog fetches the application log for a block hash.
func (c *Client) GetBlockAppLog(ctx context.Context, hash string) (*BlockAppLog, error) {
	var appLog BlockAppLog
	if err := c.call(ctx, "getapplicationlog", []Param{String(hash)}, &appLog); err != nil {
		return nil, err
	}
	return &appLog, nil
}

// GetTransactionAppLog fetches the application log for a transaction hash.
func (c *Client) GetTransactionAppLog(ctx context.Context, hash string) (*TransactionAppLog, error) {
	var appLog TransactionAppLog
	if err := c.call(ctx, "getapplicationlog", []Param{String(hash)}, &appLog); err != nil {
		return nil, err
	}
	return &appLog, nil
}

// FetchFullBlock composes GetBlock and GetBlockAppLog for one height.
func (c *Client) FetchFullBlock(ctx context.Context, height uint64) (*FullBlock, error) {
	block, err := c.GetBlock(ctx, height)
	if err != nil {
		return nil, err
	}
	appLog, err := c.GetBlockAppLog(ctx, block.Hash)
	if err != nil {
		return nil, err
	}
	return &FullBlock{Block: block, AppLog: appLog}, nil
}

// FetchFullTransaction attaches the application log to a transaction
// envelope flattened out of a block.
func (c *Client) FetchFullTransaction(ctx context.Context, tx *TransactionResult) (*FullTransaction, error) {
	appLog, err := c.GetTransactionAppLog(ctx, tx.Hash)
	if err != nil {
		return nil, err
	}
	return &FullTransaction{Tx: tx, AppLog: appLog}, nil
}

// InvokeFunctionHistoric executes a read-only contract call against the
// state root of the given block.
func (c *Client) InvokeFunctionHistoric(ctx context.Context, block uint64, scriptHash, operation string, args []Param) (*InvokeResult, error) {
	var result InvokeResult
	params := []Param{Uint(block), String(scriptHash), String(operation), Array(args...)}
	if err := c.call(ctx, "invokefunctionhistoric", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InvokeFunction executes a read-only contract call against current state.
func (c *Client) InvokeFunction(ctx context.Context, scriptHash, operation string, args []Param) (*InvokeResult, error) {
	var result InvokeResult
	params := []Param{String(scriptHash), String(operation), Array(args...)}
	if err := c.call(ctx, "invokefunction", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBalanceOfHistoric probes a token's balanceOf for an address hash at a
// historical block. The caller is responsible for interpreting the stack;
// a non-HALT state or an unparseable value means balance 0.
func (c *Client) GetBalanceOfHistoric(ctx context.Context, block uint64, token, addressHash string) (*InvokeResult, error) {
	return c.InvokeFunctionHistoric(ctx, block, token, "balanceOf", []Param{Hash160Param(addressHash)})
}
