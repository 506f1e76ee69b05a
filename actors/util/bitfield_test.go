package util_test

import (
	"testing"

	"github.com/filecoin-project/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/util"
)

func TestBitFieldContains(t *testing.T) {
	a := bitfield.New()
	a.Set(2)
	a.Set(4)
	a.Set(5)

	b := bitfield.New()
	b.Set(3)
	b.Set(4)

	c := bitfield.New()
	c.Set(2)
	c.Set(5)

	assertContainsAny := func(a, b bitfield.BitField, expected bool) {
		t.Helper()
		actual, err := util.BitFieldContainsAny(a, b)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	assertContainsAll := func(a, b bitfield.BitField, expected bool) {
		t.Helper()
		actual, err := util.BitFieldContainsAll(a, b)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	assertContainsAny(a, b, true)
	assertContainsAny(b, a, true)
	assertContainsAny(a, c, true)
	assertContainsAny(c, a, true)
	assertContainsAny(b, c, false)
	assertContainsAny(c, b, false)
	assertContainsAny(a, a, true)

	assertContainsAll(a, b, false)
	assertContainsAll(b, a, false)
	assertContainsAll(a, c, true)
	assertContainsAll(c, a, false)
	assertContainsAll(b, c, false)
	assertContainsAll(c, b, false)
	assertContainsAll(a, a, true)

	empty := bitfield.New()
	assertContainsAll(a, empty, true)
	assertContainsAny(a, empty, false)
}
