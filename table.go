package hpack

import "fmt"

// Header is an ordered (name, value) header pair. The codec preserves
// bytes verbatim; it never lowercases or otherwise normalises Name or
// Value. Sensitive marks a header that must round-trip through the
// never-indexed representation (RFC 7541 section 6.2.3) instead of being
// inserted into the dynamic table.
type Header struct {
	Name  string
	Value string

	Sensitive bool
}

// headerEntryOverhead is the constant 32-octet per-entry accounting
// overhead from RFC 7541 section 4.1. It is part of the wire contract
// between encoder and decoder dynamic tables, not an implementation
// detail: both sides must agree on it for their eviction decisions to
// stay in sync.
const headerEntryOverhead = 32

func headerSize(name, value string) int {
	return len(name) + len(value) + headerEntryOverhead
}

// MatchKind discriminates the result of Context.Find.
type MatchKind int

const (
	NoMatch MatchKind = iota
	NameMatch
	FullMatch
)

// Match is the result of searching the combined static+dynamic address
// space for a header.
type Match struct {
	Kind  MatchKind
	Index int
}

// Context is the compression context shared by an Encoder or Decoder: the
// static table (fixed, implicit) plus a mutable, per-peer dynamic table.
// Encoder and decoder each own an independent Context; HPACK correctness
// depends on the two staying in lock-step purely by each side performing
// the same sequence of table mutations, never by sharing memory.
type Context struct {
	dynamicTable []Header // front = most recently inserted = lowest dynamic address (62)
	maxSize      int
	currentSize  int
}

// NewContext creates a compression context with an empty dynamic table
// and the given maximum size.
func NewContext(maxSize int) *Context {
	return &Context{maxSize: maxSize}
}

// MaxSize reports the current maximum permitted total size of the dynamic
// table.
func (ctx *Context) MaxSize() int {
	return ctx.maxSize
}

// CurrentSize reports the sum of entry sizes currently held in the
// dynamic table. It never includes the static table.
func (ctx *Context) CurrentSize() int {
	return ctx.currentSize
}

// DynamicLen reports the number of entries in the dynamic table.
func (ctx *Context) DynamicLen() int {
	return len(ctx.dynamicTable)
}

// Lookup resolves a 1-based address across the combined static+dynamic
// space: 1..61 is the static table, 62..(61+DynamicLen()) is the dynamic
// table with 62 addressing the most recently inserted entry. Any other
// index is ErrIndexOutOfRange.
func (ctx *Context) Lookup(index int) (Header, error) {
	if index < 1 {
		return Header{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index <= len(staticTable) {
		e := staticTable[index-1]
		return Header{Name: e.Name, Value: e.Value}, nil
	}
	dynIdx := index - len(staticTable) - 1
	if dynIdx < 0 || dynIdx >= len(ctx.dynamicTable) {
		return Header{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return ctx.dynamicTable[dynIdx], nil
}

// Find searches the combined address space for (name, value). It returns
// FullMatch at the lowest index whose entry matches both name and value;
// failing that, NameMatch at the lowest index whose entry matches just the
// name; failing that, NoMatch. The static table is consulted first by
// construction of the address space (RFC 7541 section 2.3.3 leaves the
// tie-break unspecified; this preserves the reference ordering, which
// encoders may rely on but decoders must not).
func (ctx *Context) Find(name, value string) Match {
	if idx, ok := lookupStaticFull(name, value); ok {
		return Match{FullMatch, idx}
	}
	for i, e := range ctx.dynamicTable {
		if e.Name == name && e.Value == value {
			return Match{FullMatch, len(staticTable) + i + 1}
		}
	}
	if idx, ok := lookupStaticName(name); ok {
		return Match{NameMatch, idx}
	}
	for i, e := range ctx.dynamicTable {
		if e.Name == name {
			return Match{NameMatch, len(staticTable) + i + 1}
		}
	}
	return Match{NoMatch, 0}
}

// Add inserts (name, value) at the front of the dynamic table, then
// evicts from the back until the size invariant holds. Per RFC 7541
// section 4.4, an entry whose own size exceeds maxSize empties the whole
// dynamic table and is not added; this is a legal outcome, not an error.
func (ctx *Context) Add(h Header) {
	size := headerSize(h.Name, h.Value)
	if size > ctx.maxSize {
		ctx.dynamicTable = ctx.dynamicTable[:0]
		ctx.currentSize = 0
		return
	}
	ctx.evictFor(size)
	ctx.dynamicTable = append([]Header{h}, ctx.dynamicTable...)
	ctx.currentSize += size
}

// Resize sets the dynamic table's maximum size, evicting from the back
// until the invariant holds. If settingsLimit is non-nil and newSize
// exceeds it, Resize fails with ErrDecodeError and leaves the context
// unchanged: the peer-advertised SETTINGS_HEADER_TABLE_SIZE is a hard
// ceiling a dynamic-table-size-update must never cross.
func (ctx *Context) Resize(newSize int, settingsLimit *int) error {
	if settingsLimit != nil && newSize > *settingsLimit {
		return decodeErrorf("dynamic table size update to %d exceeds settings limit %d", newSize, *settingsLimit)
	}
	ctx.maxSize = newSize
	ctx.evict()
	return nil
}

func (ctx *Context) evict() {
	ctx.evictFor(0)
}

func (ctx *Context) evictFor(additional int) {
	for ctx.currentSize+additional > ctx.maxSize && len(ctx.dynamicTable) > 0 {
		last := ctx.dynamicTable[len(ctx.dynamicTable)-1]
		ctx.currentSize -= headerSize(last.Name, last.Value)
		ctx.dynamicTable = ctx.dynamicTable[:len(ctx.dynamicTable)-1]
	}
}
