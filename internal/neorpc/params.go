package neorpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Param is one JSON-RPC parameter. Objects serialize their pairs in the
// order given because parameter order is semantic for some methods.
type Param struct {
	kind  paramKind
	str   string
	num   uint64
	flag  bool
	items []Param
	pairs []Pair
}

type Pair struct {
	Key   string
	Value Param
}

type paramKind int

const (
	kindString paramKind = iota
	kindUint
	kindBool
	kindArray
	kindObject
)

func String(s string) Param { return Param{kind: kindString, str: s} }
func Uint(n uint64) Param { return Param{kind: kindUint, num: n} }
func Bool(b bool) Param { return Param{kind: kindBool, flag: b} }
func Array(items ...Param) Param { return Param{kind: kindArray, items: items} }
func Object(pairs ...Pair) Param { return Param{kind: kindObject, pairs: pairs} }

func (p Param) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case kindString:
		return json.Marshal(p.str)
	case kindUint:
		return []byte(strconv.FormatUint(p.num, 10)), nil
	case kindBool:
		return []byte(strconv.FormatBool(p.flag)), nil
	case kindArray:
		if p.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.items)
	case kindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, pair := range p.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := pair.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown param kind %d", p.kind)
	}
}

// Hash160Param builds the ordered {"type": "Hash160", "value": hash}
// argument contract methods take for address parameters.
func Hash160Param(hash string) Param {
	return Object(
		Pair{Key: "type", Value: String("Hash160")},
		Pair{Key: "value", Value: String(hash)},
	)
}
