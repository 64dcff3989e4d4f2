package policy

import (
	"testing"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/stretchr/testify/require"
)

func TestCompile_PositiveBalance(t *testing.T) {
	h, err := Compile(PositiveBalance{})
	require.NoError(t, err)
	require.Contains(t, h.Description(), "positive balance")
	require.NotEmpty(t, h.Bytes())

	c, err := Parse(h.Bytes())
	require.NoError(t, err)
	require.IsType(t, PositiveBalance{}, c)
}

func TestCompile_TimeWindow(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	h, err := Compile(TimeWindow{WindowSeconds: 60, IssuedAt: issued})
	require.NoError(t, err)
	require.Contains(t, h.Description(), "within 60 seconds")

	c, err := Parse(h.Bytes())
	require.NoError(t, err)
	tw, ok := c.(TimeWindow)
	require.True(t, ok)
	require.Equal(t, int64(60), tw.WindowSeconds)
	require.Equal(t, issued.UnixMilli(), tw.IssuedAt.UnixMilli())
}

func TestCompile_TimeWindow_RejectsNonPositiveWindow(t *testing.T) {
	_, err := Compile(TimeWindow{WindowSeconds: 0})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = Compile(TimeWindow{WindowSeconds: -5})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestCompile_NFTOwnership(t *testing.T) {
	addr := "0xAbCdEf1234567890aBcDeF1234567890abcdef12"

	h, err := Compile(NFTOwnership{ContractAddress: addr})
	require.NoError(t, err)
	require.Contains(t, h.Description(), "0xAbCd")
	require.Contains(t, h.Description(), "ef12")

	c, err := Parse(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, NFTOwnership{ContractAddress: addr}, c)
}

func TestCompile_NFTOwnership_RejectsBadAddress(t *testing.T) {
	for _, addr := range []string{"", "0x123", "not-an-address"} {
		_, err := Compile(NFTOwnership{ContractAddress: addr})
		require.ErrorIs(t, err, common.ErrValidation, addr)
	}
}

func TestParse_RejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`{"kind":"somethingElse"}`))
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = Parse([]byte(`not json`))
	require.ErrorIs(t, err, common.ErrValidation)
}
