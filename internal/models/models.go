// Package models holds the store entities and the API view shapes.
package models

import "encoding/json"

// Block is one chain block as persisted. ID is the monotonically assigned
// row id and doubles as the logical height once genesis is in.
type Block struct {
	ID             uint64  `db:"id" json:"index"`
	Hash           string  `db:"hash" json:"hash"`
	Size           uint32  `db:"size" json:"size"`
	Version        uint32  `db:"version" json:"version"`
	MerkleRoot     string  `db:"merkle_root" json:"merkle_root"`
	Time           uint64  `db:"time" json:"time"`
	Nonce          string  `db:"nonce" json:"nonce"`
	Speaker        uint32  `db:"speaker" json:"speaker"`
	NextConsensus  string  `db:"next_consensus" json:"next_consensus"`
	Reward         float64 `db:"reward" json:"reward"`
	RewardReceiver string  `db:"reward_receiver" json:"reward_receiver"`

	Witnesses []Witness `json:"witnesses"`
}

// Witness belongs to exactly one of a block or a transaction.
type Witness struct {
	Invocation   string `db:"invocation" json:"invocation"`
	Verification string `db:"verification" json:"verification"`
}

type Transaction struct {
	ID         uint64 `db:"id" json:"index"`
	Hash       string `db:"hash" json:"hash"`
	BlockIndex uint64 `db:"block_index" json:"block_index"`
	VMState    string `db:"vm_state" json:"vm_state"`
	Size       uint32 `db:"size" json:"size"`
	Version    uint32 `db:"version" json:"version"`
	Nonce      uint64 `db:"nonce" json:"nonce"`
	Sender     string `db:"sender" json:"sender"`
	SysFee     string `db:"sysfee" json:"sysfee"`
	NetFee     string `db:"netfee" json:"netfee"`
	ValidUntil uint64 `db:"valid_until" json:"valid_until"`
	Signers    string `db:"signers" json:"signers"`
	Script     string `db:"script" json:"script"`
	StackRes   string `db:"stack_result" json:"stack_result,omitempty"`

	Timestamp     uint64         `db:"-" json:"time,omitempty"`
	Witnesses     []Witness      `json:"witnesses,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// Notification is one contract event emitted by a transaction. StateValues
// keep their RPC order via ascending row id.
type Notification struct {
	ID              uint64 `db:"id" json:"-"`
	TransactionHash string `db:"transaction_hash" json:"transaction_hash"`
	Contract        string `db:"contract" json:"contract"`
	EventName       string `db:"event_name" json:"event_name"`
	StateType       string `db:"state_type" json:"state_type"`

	StateValues []StateValue `json:"state_values"`
}

// StateValue is one ordered element of a notification's state array. Value
// is nil for SQL NULL (the JSON-null / absent case).
type StateValue struct {
	Type  string  `db:"type" json:"type"`
	Value *string `db:"value" json:"value"`
}

type Contract struct {
	ID           uint64 `db:"id" json:"index"`
	BlockIndex   uint64 `db:"block_index" json:"block_index"`
	Hash         string `db:"hash" json:"hash"`
	ContractType string `db:"contract_type" json:"contract_type"`
}

// DailyAddressBalance is the end-of-day balance of one address in one
// token. Timestamp is carried through the pipeline; the store derives the
// date from it.
type DailyAddressBalance struct {
	BlockIndex    uint64 `db:"block_index" json:"block_index"`
	Date          string `db:"date" json:"date"`
	Address       string `db:"address" json:"address"`
	TokenContract string `db:"token_contract" json:"token_contract"`
	Balance       int64  `db:"balance" json:"balance"`

	Timestamp uint64 `db:"-" json:"-"`
}

type DailyTokenPrice struct {
	BlockIndex    uint64  `db:"block_index" json:"block_index"`
	Date          string  `db:"date" json:"date"`
	TokenContract string  `db:"token_contract" json:"token_contract"`
	Price         float64 `db:"price" json:"price"`

	Timestamp uint64 `db:"-" json:"-"`
}

type DailyContractUsage struct {
	Date     string `db:"date" json:"date"`
	Contract string `db:"contract" json:"contract"`
	Usage    uint64 `db:"usage" json:"usage"`
}

// Transfer is the display form of one NEP-17 transfer notification.
type Transfer struct {
	Contract string  `json:"contract"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
}

// TxData is one transaction in the address-transfers view.
type TxData struct {
	TxID           string     `json:"txid"`
	Time           uint64     `json:"time"`
	SysFee         float64    `json:"sysfee"`
	NetFee         float64    `json:"netfee"`
	NEP17Transfers []Transfer `json:"nep17_transfers"`
	NEP11Transfers []Transfer `json:"nep11_transfers"`
}

// TxDataList splits an address's transfer transactions by whether the
// address was the fee-paying sender.
type TxDataList struct {
	Address       string   `json:"address"`
	AsSender      []TxData `json:"as_sender"`
	AsParticipant []TxData `json:"as_participant"`
}

// ChainStats are the coarse whole-chain aggregates served by /v1/stat.
type ChainStats struct {
	TotalBlocks       uint64  `json:"total_blocks"`
	TotalTransactions uint64  `json:"total_transactions"`
	TotalSysFee       float64 `json:"total_sysfee"`
	TotalTransfers    uint64  `json:"total_transfers"`
	TotalSenders      uint64  `json:"total_senders"`
	TotalContracts    uint64  `json:"total_contracts"`
}

// NetworkStats adds the 7-day activity window.
type NetworkStats struct {
	TotalTransactions       uint64 `json:"total_transactions"`
	TotalAddresses          uint64 `json:"total_addresses"`
	TotalContracts          uint64 `json:"total_contracts"`
	CurrentWeekTransactions uint64 `json:"current_week_transactions"`
	CurrentWeekAddresses    uint64 `json:"current_week_addresses"`
	CurrentWeekContracts    uint64 `json:"current_week_contracts"`
}

// CompactJSON normalizes a raw JSON value to its compact serialization.
func CompactJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
