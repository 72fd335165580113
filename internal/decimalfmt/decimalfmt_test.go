package decimalfmt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janwillem32/rsbd8/internal/decimalfmt"
)

func TestPad20Zero(t *testing.T) {
	require.Equal(t, "                   0", decimalfmt.Pad20(0))
	require.Len(t, decimalfmt.Pad20(0), 20)
}

func TestPad20MaxUint64(t *testing.T) {
	require.Equal(t, "18446744073709551615", decimalfmt.Pad20(18446744073709551615))
}

func TestPad20SmallValue(t *testing.T) {
	got := decimalfmt.Pad20(42)
	require.Len(t, got, 20)
	require.Equal(t, "                  42", got)
}
