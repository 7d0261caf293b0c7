package hpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTableLookup(t *testing.T) {
	ctx := NewContext(4096)

	h, err := ctx.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, Header{Name: ":method", Value: "GET"}, h)

	h, err = ctx.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, Header{Name: ":authority", Value: ""}, h)

	h, err = ctx.Lookup(61)
	require.NoError(t, err)
	assert.Equal(t, Header{Name: "www-authenticate", Value: ""}, h)
}

func TestLookupOutOfRange(t *testing.T) {
	ctx := NewContext(4096)
	_, err := ctx.Lookup(62)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = ctx.Lookup(0)
	assert.ErrorIs(t, err, ErrDecodeError)
}

func TestDynamicTableAddAndLookup(t *testing.T) {
	ctx := NewContext(4096)
	ctx.Add(Header{Name: "x-custom", Value: "one"})
	ctx.Add(Header{Name: "x-custom", Value: "two"})

	// Most recently inserted entry addresses the lowest dynamic index, 62.
	h, err := ctx.Lookup(62)
	require.NoError(t, err)
	assert.Equal(t, Header{Name: "x-custom", Value: "two"}, h)

	h, err = ctx.Lookup(63)
	require.NoError(t, err)
	assert.Equal(t, Header{Name: "x-custom", Value: "one"}, h)
}

func TestFindPrefersStaticOverDynamic(t *testing.T) {
	ctx := NewContext(4096)
	ctx.Add(Header{Name: ":method", Value: "GET"})

	match := ctx.Find(":method", "GET")
	assert.Equal(t, FullMatch, match.Kind)
	assert.Equal(t, 2, match.Index) // static index for (:method, GET), not the dynamic copy.
}

func TestFindNameOnlyThenFullMatch(t *testing.T) {
	ctx := NewContext(4096)

	match := ctx.Find("x-custom", "value")
	assert.Equal(t, NoMatch, match.Kind)

	ctx.Add(Header{Name: "x-custom", Value: "other"})
	match = ctx.Find("x-custom", "value")
	assert.Equal(t, NameMatch, match.Kind)
	assert.Equal(t, 62, match.Index)

	ctx.Add(Header{Name: "x-custom", Value: "value"})
	match = ctx.Find("x-custom", "value")
	assert.Equal(t, FullMatch, match.Kind)
	assert.Equal(t, 62, match.Index) // the more recent, exact match wins.
}

func TestEvictionInvariant(t *testing.T) {
	ctx := NewContext(64 + 4*2) // room for two tiny 1-char/1-char entries (34 octets each), never three
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		ctx.Add(Header{Name: n, Value: "v"})
		assert.LessOrEqual(t, ctx.CurrentSize(), ctx.MaxSize())
	}
}

func TestOversizedInsertClearsTable(t *testing.T) {
	ctx := NewContext(32 + 12)
	ctx.Add(Header{Name: "a", Value: "b"})
	require.Equal(t, 1, ctx.DynamicLen())

	ctx.Add(Header{
		Name:  "aafadslkjasfdkljasfkdjlajklsfdfajklsfdjkladsfjklasjklfdf",
		Value: "adfsljasfdkjlsdalkfajklsdfjkalsfdjalsdfjalksdfjaldskfjlsjk",
	})
	assert.Equal(t, 0, ctx.DynamicLen())
	assert.Equal(t, 0, ctx.CurrentSize())
}

func TestResizeEvicts(t *testing.T) {
	ctx := NewContext(64 + 4)
	ctx.Add(Header{Name: "a", Value: "b"})
	ctx.Add(Header{Name: "b", Value: "c"})
	require.Equal(t, 2, ctx.DynamicLen())

	err := ctx.Resize(32+2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.DynamicLen())
	h, _ := ctx.Lookup(62)
	assert.Equal(t, Header{Name: "b", Value: "c"}, h)
}

func TestResizeRejectsAboveSettingsLimit(t *testing.T) {
	ctx := NewContext(256)
	limit := 1000
	err := ctx.Resize(2000, &limit)
	assert.ErrorIs(t, err, ErrDecodeError)
	assert.Equal(t, 256, ctx.MaxSize()) // rejected resize leaves state untouched.
}
