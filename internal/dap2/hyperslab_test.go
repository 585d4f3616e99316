package dap2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/met-norway/dars/internal/daperr"
)

func TestParseOneHyperslab_SingleIndex(t *testing.T) {
	h, err := parseOneHyperslab("5")
	require.NoError(t, err)
	require.Equal(t, Hyperslab{Start: 5, Count: 1}, h)
}

func TestParseOneHyperslab_Range(t *testing.T) {
	h, err := parseOneHyperslab("2:9")
	require.NoError(t, err)
	require.Equal(t, Hyperslab{Start: 2, Count: 8}, h)
}

func TestParseOneHyperslab_RangeSingleElement(t *testing.T) {
	h, err := parseOneHyperslab("3:3")
	require.NoError(t, err)
	require.Equal(t, Hyperslab{Start: 3, Count: 1}, h)
}

func TestParseOneHyperslab_StopBeforeStart(t *testing.T) {
	_, err := parseOneHyperslab("9:2")
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.InvalidConstraint, kind)
}

func TestParseOneHyperslab_StrideRejected(t *testing.T) {
	_, err := parseOneHyperslab("0:2:10")
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.StrideUnsupported, kind)
}

func TestParseOneHyperslab_Malformed(t *testing.T) {
	_, err := parseOneHyperslab("0:1:2:3")
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.InvalidConstraint, kind)
}

func TestParseOneHyperslab_NonInteger(t *testing.T) {
	_, err := parseOneHyperslab("abc")
	require.Error(t, err)
}

func TestParseHyperslabs_Multiple(t *testing.T) {
	slabs, err := parseHyperslabs("[0:9][1]")
	require.NoError(t, err)
	require.Equal(t, []Hyperslab{{Start: 0, Count: 10}, {Start: 1, Count: 1}}, slabs)
}

func TestParseHyperslabs_Empty(t *testing.T) {
	slabs, err := parseHyperslabs("")
	require.NoError(t, err)
	require.Nil(t, slabs)
}

func TestParseHyperslabs_UnbalancedBrackets(t *testing.T) {
	_, err := parseHyperslabs("[0:9")
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.InvalidConstraint, kind)
}

func TestParseHyperslabs_MissingOpenBracket(t *testing.T) {
	_, err := parseHyperslabs("0:9]")
	require.Error(t, err)
}

func TestParseHyperslabs_EmptyBrackets(t *testing.T) {
	_, err := parseHyperslabs("[]")
	require.Error(t, err)
}
