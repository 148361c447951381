package neorpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamMarshal(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		want  string
	}{
		{"string", String("abc"), `"abc"`},
		{"uint", Uint(664000), `664000`},
		{"bool", Bool(true), `true`},
		{"empty array", Array(), `[]`},
		{"array", Array(Uint(1), String("x")), `[1,"x"]`},
		{
			"object keeps pair order",
			Object(
				Pair{Key: "type", Value: String("Hash160")},
				Pair{Key: "value", Value: String("0xabc")},
			),
			`{"type":"Hash160","value":"0xabc"}`,
		},
		{
			"hash160 helper",
			Hash160Param("0x9f8f056a53e39585c7bb52886418c7bed83d126b"),
			`{"type":"Hash160","value":"0x9f8f056a53e39585c7bb52886418c7bed83d126b"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

// capturedRequest mirrors rpcRequest but keeps params as raw JSON so the
// harness can decode requests without Param implementing UnmarshalJSON.
type capturedRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      int             `json:"id"`
}

// rpcServer answers each method with a canned result and records requests.
func rpcServer(t *testing.T, results map[string]string) (*Client, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req capturedRequest
		require.NoError(t, json.Unmarshal(body, &req))
		seen = append(seen, req)

		result, ok := results[req.Method]
		if !ok {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), &seen
}

func TestGetCurrentHeight(t *testing.T) {
	client, seen := rpcServer(t, map[string]string{"getblockcount": "1000"})

	height, err := client.GetCurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), height)
	require.Len(t, *seen, 1)
	assert.Equal(t, "getblockcount", (*seen)[0].Method)
}

func TestGetBlock(t *testing.T) {
	client, seen := rpcServer(t, map[string]string{"getblock": `{
		"hash": "0xe31ad93809a2ac112b066e50a72ad4883cf9f94a155a7dea2f05e69417b2b9aa",
		"size": 697,
		"version": 0,
		"merkleroot": "0x0000000000000000000000000000000000000000000000000000000000000000",
		"time": 1468595606000,
		"nonce": "55DC0A3BFBE5EA86",
		"index": 1000,
		"primary": 3,
		"nextconsensus": "NgPkjjLTNcQad99iRYeXRUuowE4gxLAnDL",
		"witnesses": [{"invocation": "aW52", "verification": "dmVy"}],
		"tx": []
	}`})

	block, err := client.GetBlock(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "0xe31ad93809a2ac112b066e50a72ad4883cf9f94a155a7dea2f05e69417b2b9aa", block.Hash)
	assert.Equal(t, uint64(1000), block.Index)
	assert.Equal(t, uint64(1468595606000), block.Time)
	require.Len(t, block.Witnesses, 1)
	assert.Equal(t, "aW52", block.Witnesses[0].Invocation)

	raw, err := json.Marshal((*seen)[0].Params)
	require.NoError(t, err)
	assert.Equal(t, `[1000,1]`, string(raw))
}

func TestGetApplicationLog(t *testing.T) {
	client, _ := rpcServer(t, map[string]string{"getapplicationlog": `{
		"txid": "0xabc",
		"executions": [{
			"trigger": "Application",
			"vmstate": "HALT",
			"gasconsumed": "997775",
			"stack": [],
			"notifications": [{
				"contract": "0xd2a4cff31913016155e38e474a2c06d08be276cf",
				"eventname": "Transfer",
				"state": {"type": "Array", "value": [
					{"type": "Any"},
					{"type": "ByteString", "value": "axI92L7HGGSIUrvHhZXjU2oFj58="},
					{"type": "Integer", "value": "50000000"}
				]}
			}]
		}]
	}`})

	appLog, err := client.GetTransactionAppLog(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, appLog.Executions, 1)
	exec := appLog.Executions[0]
	assert.Equal(t, "HALT", exec.VMState)
	require.Len(t, exec.Notifications, 1)
	n := exec.Notifications[0]
	assert.Equal(t, "Transfer", n.EventName)
	require.Len(t, n.State.Value, 3)
	assert.Equal(t, "Any", n.State.Value[0].Type)
	assert.Equal(t, `"50000000"`, string(n.State.Value[2].Value))
}

func TestGetBalanceOfHistoricParams(t *testing.T) {
	client, seen := rpcServer(t, map[string]string{"invokefunctionhistoric": `{
		"state": "HALT",
		"gasconsumed": "202240",
		"stack": [{"type": "Integer", "value": "123"}]
	}`})

	result, err := client.GetBalanceOfHistoric(context.Background(), 5000000,
		"0xd2a4cff31913016155e38e474a2c06d08be276cf",
		"0x9f8f056a53e39585c7bb52886418c7bed83d126b")
	require.NoError(t, err)
	assert.Equal(t, "HALT", result.State)
	require.Len(t, result.Stack, 1)
	assert.Equal(t, `"123"`, string(result.Stack[0].Value))

	raw, err := json.Marshal((*seen)[0].Params)
	require.NoError(t, err)
	assert.Equal(t,
		`[5000000,"0xd2a4cff31913016155e38e474a2c06d08be276cf","balanceOf",`+
			`[{"type":"Hash160","value":"0x9f8f056a53e39585c7bb52886418c7bed83d126b"}]]`,
		string(raw))
}

func TestCallRPCError(t *testing.T) {
	client, _ := rpcServer(t, map[string]string{})
	_, err := client.GetCurrentHeight(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Method not found")
}

func TestCallTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.GetCurrentHeight(context.Background())
	assert.Error(t, err)
}
