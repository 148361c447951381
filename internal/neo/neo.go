// Package neo holds the low-level codecs shared by the indexer and the API:
// base64 payloads from notification state values to addresses and script
// hashes, address to hash160 conversion for balanceOf probes, and input
// validation for user-supplied hashes and addresses.
package neo

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Well-known mainnet contract hashes in display (0x + little-endian) form.
const (
	// ManagementContract emits Deploy notifications for every contract
	// registration.
	ManagementContract = "0xfffdc93764dbaddd97c48f252a53ea4643faa3fd"

	// NeoToken is indivisible, so transfer amounts are not scaled.
	NeoToken = "0xef4073a0f2b305a38ec4050e4d3d28bc40ea63f5"

	// FUSDTToken uses 6 decimals instead of the usual 8.
	FUSDTToken = "0xcd48b160c1bbc9d74997b803b9a7ad50a4bef020"
)

const (
	// GASPrecision scales 8-decimal token amounts and fees.
	GASPrecision = 100_000_000

	// FUSDTPrecision scales FUSDT amounts.
	FUSDTPrecision = 1_000_000
)

// Base64ToAddress converts a base64 ByteString payload (a 20-byte script
// hash in big-endian order, as notifications carry it) to a Neo address.
func Base64ToAddress(s string) (string, error) {
	u, err := base64ToUint160(s)
	if err != nil {
		return "", err
	}
	return address.Uint160ToString(u), nil
}

// Base64ToScriptHash converts a base64 ByteString payload to the display
// hash form: "0x" followed by the little-endian hex of the script hash.
func Base64ToScriptHash(s string) (string, error) {
	u, err := base64ToUint160(s)
	if err != nil {
		return "", err
	}
	return "0x" + u.StringLE(), nil
}

// AddressToHash160 converts a Neo address to its display script hash, the
// form balanceOf takes as a Hash160 parameter.
func AddressToHash160(addr string) (string, error) {
	u, err := address.StringToUint160(addr)
	if err != nil {
		return "", fmt.Errorf("failed to decode address %q: %w", addr, err)
	}
	return "0x" + u.StringLE(), nil
}

// AddressToBase64 encodes a Neo address as the base64 ByteString payload
// notifications carry. The API uses it to search state values for an
// address with the exact encoding the indexer persisted.
func AddressToBase64(addr string) (string, error) {
	u, err := address.StringToUint160(addr)
	if err != nil {
		return "", fmt.Errorf("failed to decode address %q: %w", addr, err)
	}
	return base64.StdEncoding.EncodeToString(u.BytesBE()), nil
}

// Base64ToHex re-encodes a base64 payload as lowercase hex. Transaction
// scripts arrive base64-encoded and are stored as hex.
func Base64ToHex(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// IsTxIDHash reports whether s looks like a transaction or block hash:
// "0x" followed by 64 hex digits.
func IsTxIDHash(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// IsAddress reports whether s is a valid Neo N3 address.
func IsAddress(s string) bool {
	_, err := address.StringToUint160(s)
	return err == nil
}

func base64ToUint160(s string) (util.Uint160, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("failed to decode base64: %w", err)
	}
	u, err := util.Uint160DecodeBytesBE(raw)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("failed to decode script hash: %w", err)
	}
	return u, nil
}
