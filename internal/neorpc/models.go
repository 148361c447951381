package neorpc

import "encoding/json"

// BlockResult is the verbose getblock payload. Transactions come embedded
// with their envelope only; application logs are fetched separately.
type BlockResult struct {
	Hash          string              `json:"hash"`
	Size          uint32              `json:"size"`
	Version       uint32              `json:"version"`
	PreviousBlock string              `json:"previousblockhash"`
	MerkleRoot    string              `json:"merkleroot"`
	Time          uint64              `json:"time"`
	Nonce         string              `json:"nonce"`
	Index         uint64              `json:"index"`
	Primary       uint32              `json:"primary"`
	NextConsensus string              `json:"nextconsensus"`
	Witnesses     []Witness           `json:"witnesses"`
	Tx            []TransactionResult `json:"tx"`
}

// TransactionResult is the verbose transaction envelope. Timestamp,
// BlockHash, and BlockIndex are not part of the RPC payload; the pipeline
// copies them from the owning block before the app-log fetch.
type TransactionResult struct {
	Hash            string          `json:"hash"`
	Size            uint32          `json:"size"`
	Version         uint32          `json:"version"`
	Nonce           uint64          `json:"nonce"`
	Sender          string          `json:"sender"`
	SysFee          string          `json:"sysfee"`
	NetFee          string          `json:"netfee"`
	ValidUntilBlock uint64          `json:"validuntilblock"`
	Signers         json.RawMessage `json:"signers"`
	Script          string          `json:"script"`
	Witnesses       []Witness       `json:"witnesses"`

	Timestamp  uint64 `json:"-"`
	BlockHash  string `json:"-"`
	BlockIndex uint64 `json:"-"`
}

type Witness struct {
	Invocation   string `json:"invocation"`
	Verification string `json:"verification"`
}

// StackItem is a typed VM value as the RPC serializes it. Value stays raw:
// it may be a string, a number, null, or a nested structure depending on
// Type, and the store persists it with type-directed encoding.
type StackItem struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// NotificationState is the state carried by a notification, an Array of
// ordered stack items.
type NotificationState struct {
	Type  string      `json:"type"`
	Value []StackItem `json:"value"`
}

type Notification struct {
	Contract  string            `json:"contract"`
	EventName string            `json:"eventname"`
	State     NotificationState `json:"state"`
}

// Execution is one trigger's outcome within an application log.
type Execution struct {
	Trigger       string          `json:"trigger"`
	VMState       string          `json:"vmstate"`
	Exception     string          `json:"exception,omitempty"`
	GasConsumed   string          `json:"gasconsumed"`
	Stack         json.RawMessage `json:"stack"`
	Notifications []Notification  `json:"notifications"`
}

// BlockAppLog is the getapplicationlog payload for a block hash. The
// executions are OnPersist then PostPersist.
type BlockAppLog struct {
	BlockHash  string      `json:"blockhash"`
	Executions []Execution `json:"executions"`
}

// TransactionAppLog is the getapplicationlog payload for a transaction
// hash; a single Application execution.
type TransactionAppLog struct {
	TxID       string      `json:"txid"`
	Executions []Execution `json:"executions"`
}

// InvokeResult is the invokefunction / invokefunctionhistoric payload.
type InvokeResult struct {
	Script      string      `json:"script"`
	State       string      `json:"state"`
	GasConsumed string      `json:"gasconsumed"`
	Exception   string      `json:"exception,omitempty"`
	Stack       []StackItem `json:"stack"`
}

// FullBlock pairs a verbose block with its application log.
type FullBlock struct {
	Block  *BlockResult
	AppLog *BlockAppLog
}

// FullTransaction pairs a transaction envelope with its application log.
type FullTransaction struct {
	Tx     *TransactionResult
	AppLog *TransactionAppLog
}
