package neo

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/vm/opcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64ToAddress(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"axI92L7HGGSIUrvHhZXjU2oFj58=", "NVg7LjGcUSrgxgjX3zEgqaksfMaiS8Z6e1"},
		{"dVE6zv92GLfukg8P5gFa0cDxb/0=", "NWcHZ95TNzfVCfvK2AvY5xyEw6ur3oD3wL"},
	}
	for _, tt := range tests {
		got, err := Base64ToAddress(tt.payload)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestBase64ToAddressInvalid(t *testing.T) {
	_, err := Base64ToAddress("not base64!!")
	assert.Error(t, err)

	// Valid base64 but not 20 bytes.
	_, err = Base64ToAddress("YWJj")
	assert.Error(t, err)
}

func TestBase64ToScriptHash(t *testing.T) {
	got, err := Base64ToScriptHash("4RvlQ9qY2B3u+HBeVhEMrbavdrc=")
	require.NoError(t, err)
	assert.Equal(t, "0xb776afb6ad0c11565e70f8ee1dd898da43e51be1", got)
}

func TestAddressToHash160(t *testing.T) {
	got, err := AddressToHash160("NVg7LjGcUSrgxgjX3zEgqaksfMaiS8Z6e1")
	require.NoError(t, err)
	assert.Equal(t, "0x9f8f056a53e39585c7bb52886418c7bed83d126b", got)

	_, err = AddressToHash160("garbage")
	assert.Error(t, err)
}

func TestAddressToBase64RoundTrip(t *testing.T) {
	payload := "axI92L7HGGSIUrvHhZXjU2oFj58="

	addr, err := Base64ToAddress(payload)
	require.NoError(t, err)

	back, err := AddressToBase64(addr)
	require.NoError(t, err)
	assert.Equal(t, payload, back)
}

func TestBase64ToHex(t *testing.T) {
	got, err := Base64ToHex("YWJj")
	require.NoError(t, err)
	assert.Equal(t, "616263", got)

	_, err = Base64ToHex("%%%")
	assert.Error(t, err)
}

func TestIsTxIDHash(t *testing.T) {
	assert.True(t, IsTxIDHash("0xe31ad93809a2ac112b066e50a72ad4883cf9f94a155a7dea2f05e69417b2b9aa"))
	assert.False(t, IsTxIDHash("e31ad93809a2ac112b066e50a72ad4883cf9f94a155a7dea2f05e69417b2b9aa"))
	assert.False(t, IsTxIDHash("0xe31a"))
	assert.False(t, IsTxIDHash("0xzzad93809a2ac112b066e50a72ad4883cf9f94a155a7dea2f05e69417b2b9aa"))
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress("NVg7LjGcUSrgxgjX3zEgqaksfMaiS8Z6e1"))
	assert.False(t, IsAddress("NVg7LjGcUSrgxgjX3zEgqaksfMaiS8Z6e"))
	assert.False(t, IsAddress(""))
}

func TestDisassemble(t *testing.T) {
	script := []byte{
		byte(opcode.PUSH1),
		byte(opcode.PUSHDATA1), 0x02, 'h', 'i',
		byte(opcode.PUSHDATA2), 0x03, 0x00, 'a', 'b', 'c',
		byte(opcode.SYSCALL), 0x01, 0x02, 0x03, 0x04,
		byte(opcode.RET),
	}

	instructions, err := Disassemble(script)
	require.NoError(t, err)
	require.Len(t, instructions, 5)

	assert.Equal(t, opcode.PUSH1, instructions[0].Op)
	assert.Equal(t, []byte("hi"), instructions[1].Operand)
	assert.Equal(t, opcode.PUSHDATA2, instructions[2].Op)
	assert.Equal(t, []byte("abc"), instructions[2].Operand)
	assert.Equal(t, opcode.SYSCALL, instructions[3].Op)
	assert.Equal(t, opcode.RET, instructions[4].Op)
}

func TestDisassembleTruncated(t *testing.T) {
	_, err := Disassemble([]byte{byte(opcode.PUSHDATA2), 0xff, 0x00, 'a'})
	assert.Error(t, err)

	_, err = Disassemble([]byte{byte(opcode.PUSHDATA1)})
	assert.Error(t, err)
}

func TestFirstPushData2(t *testing.T) {
	script := []byte{
		byte(opcode.PUSHDATA1), 0x01, 'x',
		byte(opcode.PUSHDATA2), 0x02, 0x00, '{', '}',
	}
	assert.Equal(t, []byte("{}"), FirstPushData2(script))

	assert.Nil(t, FirstPushData2([]byte{byte(opcode.PUSH1), byte(opcode.RET)}))
	assert.Nil(t, FirstPushData2([]byte{byte(opcode.PUSHDATA2), 0xff}))
}
