package rollups

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenAddr = common.HexToAddress("0x92C6bcA388E99d6B304f1Af3c3Cd749Ff0b591e2")

func sigSelector(sig string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(sig))[:4])
}

func TestClassifyNotice(t *testing.T) {
	raw, err := EncodeNotice([]byte("hello"))
	require.NoError(t, err)

	d, err := Classify(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeNotice, d.Type)
	assert.Equal(t, []byte("hello"), []byte(d.Payload))
	assert.False(t, d.IsVoucher())
	assert.Nil(t, d.Value)
}

func TestClassifyVoucher(t *testing.T) {
	raw, err := EncodeVoucher(tokenAddr, big.NewInt(1e18), []byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	require.NoError(t, err)

	d, err := Classify(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeVoucher, d.Type)
	assert.Equal(t, tokenAddr, d.Destination)
	assert.Equal(t, 0, d.Value.Cmp(big.NewInt(1e18)))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01}, []byte(d.Payload))
	assert.True(t, d.IsVoucher())
}

func TestClassifyDelegateCallVoucher(t *testing.T) {
	raw, err := EncodeDelegateCallVoucher(tokenAddr, []byte{0x01, 0x02})
	require.NoError(t, err)

	d, err := Classify(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeDelegateCallVoucher, d.Type)
	assert.Equal(t, tokenAddr, d.Destination)
	assert.True(t, d.IsVoucher())
}

func TestClassifyUnknownSelector(t *testing.T) {
	d, err := Classify([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	assert.ErrorIs(t, err, ErrUnknownOutput)
	assert.Equal(t, TypeUnknown, d.Type)
}

func TestClassifyTooShort(t *testing.T) {
	d, err := Classify([]byte{0xc2})
	assert.ErrorIs(t, err, ErrUnknownOutput)
	assert.Equal(t, TypeUnknown, d.Type)

	d, err = Classify(nil)
	assert.ErrorIs(t, err, ErrUnknownOutput)
	assert.Equal(t, TypeUnknown, d.Type)
}

func TestClassifyTruncatedBody(t *testing.T) {
	raw, err := EncodeNotice([]byte("hello"))
	require.NoError(t, err)

	d, err := Classify(raw[:20])
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownOutput)
	assert.Equal(t, TypeUnknown, d.Type)
}

func TestOutputTypeSelector(t *testing.T) {
	cases := map[string]string{
		"notice":                sigSelector("Notice(bytes)"),
		"Voucher":               sigSelector("Voucher(address,uint256,bytes)"),
		"delegatecallvoucher":   sigSelector("DelegateCallVoucher(address,bytes)"),
		"delegate-call-voucher": sigSelector("DelegateCallVoucher(address,bytes)"),
		"0xC258D6E5":            "0xc258d6e5",
	}
	for in, want := range cases {
		got, err := OutputTypeSelector(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestOutputTypeSelectorInvalid(t *testing.T) {
	for _, in := range []string{"", "report", "0x1234", "0xzzzzzzzz"} {
		_, err := OutputTypeSelector(in)
		assert.Error(t, err, in)
	}
}

func TestEncodedSelectorsMatchSignatures(t *testing.T) {
	notice, err := EncodeNotice(nil)
	require.NoError(t, err)
	assert.Equal(t, sigSelector("Notice(bytes)"), hexutil.Encode(notice[:4]))

	voucher, err := EncodeVoucher(tokenAddr, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, sigSelector("Voucher(address,uint256,bytes)"), hexutil.Encode(voucher[:4]))
}
