package api

import (
	"strconv"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
)

// transferEvents flattens a transaction's Transfer notifications into the
// display shape. NEO is indivisible so its amount stays raw; FUSDT carries
// 6 decimals; everything else is treated as 8. An unparseable amount drops
// the transfer.
func transferEvents(tx models.Transaction) models.TxData {
	transfers := []models.Transfer{}
	for _, n := range tx.Notifications {
		if n.EventName != "Transfer" || n.StateType != "Array" || len(n.StateValues) < 3 {
			continue
		}

		from := transferParty(n.StateValues[0])
		to := transferParty(n.StateValues[1])

		qty := "0"
		if v := n.StateValues[2].Value; v != nil {
			qty = *v
		}
		raw, err := strconv.ParseFloat(qty, 64)
		if err != nil {
			continue
		}

		amount := raw
		switch n.Contract {
		case neo.NeoToken:
		case neo.FUSDTToken:
			amount = raw / neo.FUSDTPrecision
		default:
			amount = raw / neo.GASPrecision
		}

		transfers = append(transfers, models.Transfer{
			Contract: n.Contract,
			From:     from,
			To:       to,
			Amount:   amount,
		})
	}

	sysfee, _ := strconv.ParseFloat(tx.SysFee, 64)
	netfee, _ := strconv.ParseFloat(tx.NetFee, 64)
	return models.TxData{
		TxID:           tx.Hash,
		Time:           tx.Timestamp,
		SysFee:         sysfee / neo.GASPrecision,
		NetFee:         netfee / neo.GASPrecision,
		NEP17Transfers: transfers,
		NEP11Transfers: []models.Transfer{},
	}
}

// transferParty renders a transfer endpoint as an address, or the literal
// "null" for minting and burning.
func transferParty(v models.StateValue) string {
	if v.Value == nil {
		return "null"
	}
	addr, err := neo.Base64ToAddress(*v.Value)
	if err != nil {
		return "null"
	}
	return addr
}
