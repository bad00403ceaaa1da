package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnbench/vulnbench/internal/model"
)

func TestNormalizeCWE(t *testing.T) {
	assert.Equal(t, "79", model.NormalizeCWE("CWE-79"))
	assert.Equal(t, "79", model.NormalizeCWE("cwe-79"))
	assert.Equal(t, "79", model.NormalizeCWE("79"))
	assert.Equal(t, "79", model.NormalizeCWE("079"))
	assert.Equal(t, "79", model.NormalizeCWE(" CWE-79 "))
	assert.Equal(t, "89", model.NormalizeCWE("CWE89"))

	assert.Equal(t, "", model.NormalizeCWE(""))
	assert.Equal(t, "", model.NormalizeCWE("CWE-"))
	assert.Equal(t, "", model.NormalizeCWE("not-a-cwe"))
	assert.Equal(t, "", model.NormalizeCWE("CWE-79x"))
}

func TestCWEEqual(t *testing.T) {
	assert.True(t, model.CWEEqual("CWE-79", "79"))
	assert.True(t, model.CWEEqual("cwe-089", "CWE-89"))
	assert.False(t, model.CWEEqual("CWE-79", "CWE-89"))

	// unknown never equals unknown
	assert.False(t, model.CWEEqual("", ""))
	assert.False(t, model.CWEEqual("garbage", "garbage"))
}

func TestCanonicalCWE(t *testing.T) {
	assert.Equal(t, "CWE-79", model.CanonicalCWE("79"))
	assert.Equal(t, "CWE-79", model.CanonicalCWE("cwe-079"))
	assert.Equal(t, "", model.CanonicalCWE("nope"))
}

func TestOrderedSet(t *testing.T) {
	set := model.NewOrderedSet[int]()
	require.True(t, set.IsEmpty())

	set.Add(5)
	set.Add(3)
	set.Add(5)
	set.Add(9)
	set.Add(3)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []int{5, 3, 9}, set.Values(), "insertion order survives deduplication")
	assert.True(t, set.Has(9))
	assert.False(t, set.Has(7))

	// Values returns a copy
	values := set.Values()
	values[0] = 42
	assert.Equal(t, []int{5, 3, 9}, set.Values())
}
