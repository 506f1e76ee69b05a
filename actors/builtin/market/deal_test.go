package market_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	tutil "github.com/filecoin-project/storage-actors/support/testing"
)

func TestDealLabel(t *testing.T) {
	t.Run("empty label serializes as empty string", func(t *testing.T) {
		label1 := market.EmptyDealLabel
		buf := bytes.Buffer{}
		require.NoError(t, label1.MarshalCBOR(&buf), "failed to marshal empty deal label")
		ser := buf.Bytes()
		assert.Equal(t, []byte{0x60}, ser) // cbor empty str (maj type 3)

		label2 := &market.DealLabel{}
		require.NoError(t, label2.UnmarshalCBOR(bytes.NewReader(ser)))
		assert.True(t, label2.IsString())
		assert.False(t, label2.IsBytes())
		assert.Equal(t, 0, label2.Length())
	})

	t.Run("nil label pointer serializes as empty string", func(t *testing.T) {
		var label *market.DealLabel
		buf := bytes.Buffer{}
		require.NoError(t, label.MarshalCBOR(&buf))
		assert.Equal(t, []byte{0x60}, buf.Bytes())
	})

	t.Run("string and byte labels keep their kind", func(t *testing.T) {
		s, err := market.NewLabelFromString("deadbeef")
		require.NoError(t, err)
		b, err := market.NewLabelFromBytes([]byte("deadbeef"))
		require.NoError(t, err)

		assert.True(t, s.IsString())
		assert.True(t, b.IsBytes())
		assert.False(t, s.Equals(b))
		assert.Equal(t, s.Length(), b.Length())

		str, err := s.ToString()
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", str)
		_, err = s.ToBytes()
		assert.Error(t, err)

		raw, err := b.ToBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte("deadbeef"), raw)
		_, err = b.ToString()
		assert.Error(t, err)
	})

	t.Run("invalid utf8 string rejected", func(t *testing.T) {
		_, err := market.NewLabelFromString(string([]byte{0xde, 0xad, 0xbe, 0xef}))
		assert.Error(t, err)
	})

	t.Run("json only for strings", func(t *testing.T) {
		s, err := market.NewLabelFromString("label")
		require.NoError(t, err)
		js, err := json.Marshal(&s)
		require.NoError(t, err)
		assert.Equal(t, `"label"`, string(js))

		var decoded market.DealLabel
		require.NoError(t, json.Unmarshal(js, &decoded))
		assert.True(t, decoded.Equals(s))

		b, err := market.NewLabelFromBytes([]byte("label"))
		require.NoError(t, err)
		_, err = json.Marshal(&b)
		assert.Error(t, err)
	})
}

func TestDealLabelFromCBOR(t *testing.T) {
	// empty string
	// b011_00000
	emptyCBORText := []byte{0x60}
	var label1 market.DealLabel
	require.NoError(t, label1.UnmarshalCBOR(bytes.NewReader(emptyCBORText)))
	assert.True(t, label1.IsString())

	// valid utf8 string
	// b011_00100 "deadbeef"
	cborTestValid := append([]byte{0x68}, []byte("deadbeef")...)
	var label2 market.DealLabel
	require.NoError(t, label2.UnmarshalCBOR(bytes.NewReader(cborTestValid)))
	str, err := label2.ToString()
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", str)

	// invalid utf8 string
	// b011_00100 0xde 0xad 0xbe 0xef
	cborText := []byte{0x64, 0xde, 0xad, 0xbe, 0xef}
	var label3 market.DealLabel
	err = label3.UnmarshalCBOR(bytes.NewReader(cborText))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not valid utf8")

	// empty bytes
	// b010_00000
	emptyCBORBytes := []byte{0x40}
	var label4 market.DealLabel
	require.NoError(t, label4.UnmarshalCBOR(bytes.NewReader(emptyCBORBytes)))
	assert.True(t, label4.IsBytes())

	// bytes
	// b010_00100 0xde 0xad 0xbe 0xef
	cborBytes := []byte{0x44, 0xde, 0xad, 0xbe, 0xef}
	var label5 market.DealLabel
	require.NoError(t, label5.UnmarshalCBOR(bytes.NewReader(cborBytes)))
	raw, err := label5.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw)

	// bad major type
	// array of empty array b100_00001 b100_00000
	arrayBytes := []byte{0x81, 0x80}
	var label6 market.DealLabel
	err = label6.UnmarshalCBOR(bytes.NewReader(arrayBytes))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected major tag")
}

func TestDealProposalAccounting(t *testing.T) {
	label, err := market.NewLabelFromString("label")
	require.NoError(t, err)
	proposal := market.DealProposal{
		PieceCID:             tutil.MakeCID("piece", &market.PieceCIDPrefix),
		PieceSize:            abi.PaddedPieceSize(2048),
		Client:               tutil.NewIDAddr(t, 101),
		Provider:             tutil.NewIDAddr(t, 102),
		Label:                label,
		StartEpoch:           100,
		EndEpoch:             300,
		StoragePricePerEpoch: abi.NewTokenAmount(10),
		ProviderCollateral:   abi.NewTokenAmount(50),
		ClientCollateral:     abi.NewTokenAmount(7),
	}

	assert.Equal(t, abi.ChainEpoch(200), proposal.Duration())
	assert.True(t, proposal.TotalStorageFee().Equals(abi.NewTokenAmount(2000)))
	assert.True(t, proposal.ClientBalanceRequirement().Equals(abi.NewTokenAmount(2007)))
	assert.True(t, proposal.ProviderBalanceRequirement().Equals(abi.NewTokenAmount(50)))
	assert.True(t, proposal.Weight().Equals(big.NewInt(2048*200)))

	// the cid depends on every field, including the label kind
	c1, err := proposal.Cid()
	require.NoError(t, err)
	proposal.Label, err = market.NewLabelFromBytes([]byte("label"))
	require.NoError(t, err)
	c2, err := proposal.Cid()
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}
