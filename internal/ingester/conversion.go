package ingester

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shrike-indexer/shrike/internal/flamingo"
	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
	"github.com/shrike-indexer/shrike/internal/neorpc"
)

// stringValue unwraps a raw JSON string. Stack item values of type String,
// ByteString, and Integer all arrive as JSON strings over the wire.
func stringValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("failed to unwrap stack value: %w", err)
	}
	return s, nil
}

// encodeStateValue flattens one stack item into its persisted form. Absent
// and null values become SQL NULL; string-shaped types keep the wire string
// verbatim; anything structured falls back to compact JSON.
func encodeStateValue(item neorpc.StackItem) models.StateValue {
	sv := models.StateValue{Type: item.Type}
	if len(item.Value) == 0 || string(item.Value) == "null" {
		return sv
	}
	switch item.Type {
	case "String", "ByteString", "Integer":
		if s, err := stringValue(item.Value); err == nil {
			sv.Value = &s
			return sv
		}
	}
	s := models.CompactJSON(item.Value)
	sv.Value = &s
	return sv
}

// toStoreBlock shapes a verbose block and its application log into a store
// row. The GAS reward and its receiver come from the PostPersist execution's
// Transfer notification: value[1] is the receiver, value[2] the raw amount.
func toStoreBlock(fb *neorpc.FullBlock) (models.Block, error) {
	block := models.Block{
		Hash:          fb.Block.Hash,
		Size:          fb.Block.Size,
		Version:       fb.Block.Version,
		MerkleRoot:    fb.Block.MerkleRoot,
		Time:          fb.Block.Time,
		Nonce:         fb.Block.Nonce,
		Speaker:       fb.Block.Primary,
		NextConsensus: fb.Block.NextConsensus,
	}
	for _, w := range fb.Block.Witnesses {
		block.Witnesses = append(block.Witnesses, models.Witness{
			Invocation:   w.Invocation,
			Verification: w.Verification,
		})
	}

	for _, exec := range fb.AppLog.Executions {
		if exec.Trigger != "PostPersist" || len(exec.Notifications) == 0 {
			continue
		}
		values := exec.Notifications[0].State.Value
		if len(values) < 3 {
			return block, fmt.Errorf("malformed PostPersist notification in block %s", fb.Block.Hash)
		}
		receiverB64, err := stringValue(values[1].Value)
		if err != nil {
			return block, err
		}
		receiver, err := neo.Base64ToAddress(receiverB64)
		if err != nil {
			return block, fmt.Errorf("failed to decode reward receiver in block %s: %w", fb.Block.Hash, err)
		}
		rawReward, err := stringValue(values[2].Value)
		if err != nil {
			return block, err
		}
		reward, err := strconv.ParseInt(rawReward, 10, 64)
		if err != nil {
			return block, fmt.Errorf("failed to parse reward %q in block %s: %w", rawReward, fb.Block.Hash, err)
		}
		block.RewardReceiver = receiver
		block.Reward = float64(reward) / neo.GASPrecision
		break
	}
	return block, nil
}

// toStoreTransaction shapes a transaction envelope and its application log
// into a store row. The script is re-encoded from base64 to hex and the
// result stack is kept as compact JSON.
func toStoreTransaction(ft *neorpc.FullTransaction) (models.Transaction, error) {
	if len(ft.AppLog.Executions) == 0 {
		return models.Transaction{}, fmt.Errorf("transaction %s has no executions", ft.Tx.Hash)
	}
	exec := ft.AppLog.Executions[0]

	script, err := neo.Base64ToHex(ft.Tx.Script)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to decode script of %s: %w", ft.Tx.Hash, err)
	}

	tx := models.Transaction{
		Hash:       ft.Tx.Hash,
		BlockIndex: ft.Tx.BlockIndex,
		VMState:    exec.VMState,
		Size:       ft.Tx.Size,
		Version:    ft.Tx.Version,
		Nonce:      ft.Tx.Nonce,
		Sender:     ft.Tx.Sender,
		SysFee:     ft.Tx.SysFee,
		NetFee:     ft.Tx.NetFee,
		ValidUntil: ft.Tx.ValidUntilBlock,
		Signers:    models.CompactJSON(ft.Tx.Signers),
		Script:     script,
		StackRes:   models.CompactJSON(exec.Stack),
		Timestamp:  ft.Tx.Timestamp,
	}
	for _, w := range ft.Tx.Witnesses {
		tx.Witnesses = append(tx.Witnesses, models.Witness{
			Invocation:   w.Invocation,
			Verification: w.Verification,
		})
	}
	for _, n := range exec.Notifications {
		notification := models.Notification{
			TransactionHash: ft.Tx.Hash,
			Contract:        n.Contract,
			EventName:       n.EventName,
			StateType:       n.State.Type,
		}
		for _, item := range n.State.Value {
			notification.StateValues = append(notification.StateValues, encodeStateValue(item))
		}
		tx.Notifications = append(tx.Notifications, notification)
	}
	return tx, nil
}

// detectContractDeployments scans a transaction's notifications for Deploy
// events emitted by the management contract. The deployed hash sits in
// state value[0]; the contract type is read from the manifest embedded as
// the first PUSHDATA2 operand of the deploy script. Malformed items are
// skipped, never fatal.
func detectContractDeployments(ft *neorpc.FullTransaction) []models.Contract {
	if len(ft.AppLog.Executions) == 0 {
		return nil
	}

	var contracts []models.Contract
	for _, n := range ft.AppLog.Executions[0].Notifications {
		if n.EventName != "Deploy" || n.Contract != neo.ManagementContract {
			continue
		}
		if len(n.State.Value) == 0 {
			continue
		}
		hashB64, err := stringValue(n.State.Value[0].Value)
		if err != nil {
			continue
		}
		hash, err := neo.Base64ToScriptHash(hashB64)
		if err != nil {
			continue
		}
		contractType, err := deployContractType(ft.Tx.Script)
		if err != nil {
			continue
		}
		contracts = append(contracts, models.Contract{
			BlockIndex:   ft.Tx.BlockIndex,
			Hash:         hash,
			ContractType: contractType,
		})
	}
	return contracts
}

// deployContractType extracts the supported standards from a deploy
// script's embedded manifest. Scripts whose first PUSHDATA2 payload is not
// a manifest classify as "[]".
func deployContractType(scriptB64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(scriptB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode deploy script: %w", err)
	}
	operand := neo.FirstPushData2(raw)
	if len(operand) == 0 || operand[0] != '{' {
		return "[]", nil
	}

	var manifest struct {
		SupportedStandards json.RawMessage `json:"supportedstandards"`
	}
	if err := json.Unmarshal(operand, &manifest); err != nil {
		return "[]", nil
	}
	if len(manifest.SupportedStandards) == 0 {
		return "[]", nil
	}
	return models.CompactJSON(manifest.SupportedStandards), nil
}

// toStorePrices stamps feed quotes with the block they were sampled at.
func toStorePrices(quotes []flamingo.Price, blockIndex, timeMs uint64) []models.DailyTokenPrice {
	prices := make([]models.DailyTokenPrice, 0, len(quotes))
	for _, q := range quotes {
		prices = append(prices, models.DailyTokenPrice{
			BlockIndex:    blockIndex,
			TokenContract: q.Hash,
			Price:         q.USDPrice,
			Timestamp:     timeMs,
		})
	}
	return prices
}

// parseBalanceStack reads a balanceOf invocation result. Anything other
// than a clean HALT with an integer on top counts as balance 0.
func parseBalanceStack(inv *neorpc.InvokeResult) int64 {
	if inv == nil || inv.State != "HALT" || len(inv.Stack) == 0 {
		return 0
	}
	s, err := stringValue(inv.Stack[0].Value)
	if err != nil {
		return 0
	}
	balance, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return balance
}
