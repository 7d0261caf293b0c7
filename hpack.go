// Package hpack implements the HPACK header-compression format used by
// HTTP/2 (RFC 7541): a static+dynamic indexing table, a canonical Huffman
// codec for octet strings, and a bit-level block codec for the six field
// representations plus dynamic-table-size updates.
package hpack

var (
	// DefaultMaxIntegerValue bounds a fully-decoded variable-length
	// integer; values above it are ErrIntegerValueTooLarge.
	DefaultMaxIntegerValue = defaultMaxIntegerValue
	// DefaultMaxIntegerEncodedLength bounds the number of octets (prefix
	// plus continuation) consumed decoding one integer.
	DefaultMaxIntegerEncodedLength = defaultMaxIntegerEncodedLength
	// DefaultMaxStringLiteralLength bounds a string literal's encoded
	// length, checked against the Huffman-compressed length when H=1.
	DefaultMaxStringLiteralLength = 1024 * 64
)

// representation bit patterns for the first octet of a field
// representation (RFC 7541 section 6). Checked in this exact order: each
// successive mask is a strict subset of the prior one's zero bits, so an
// if/else-if chain in this order reproduces the first-octet priority of
// RFC 7541 section 6 without needing a separate dispatch table.
const (
	headerFieldIndexed                 = 1 << 7
	headerFieldLiteralIncrementalIndex = 1 << 6
	headerFieldDynamicSizeUpdate       = 1 << 5
	headerFieldLiteralNeverIndexed     = 1 << 4
	headerFieldLiteralNotIndexed       = 0
)

const huffmanEncodedFlag = 1 << 7

// reprKind names which of the six representation forms (or the
// dynamic-table-size-update directive) a first octet encodes. It exists
// for state-machine bookkeeping and logging; the actual bit-twiddling
// still happens against the headerField* masks above.
type reprKind int

const (
	reprIndexed reprKind = iota
	reprLiteralIncremental
	reprSizeUpdate
	reprLiteralNever
	reprLiteralNotIndexed
)

func classifyRepresentation(b byte) reprKind {
	switch {
	case b&headerFieldIndexed == headerFieldIndexed:
		return reprIndexed
	case b&headerFieldLiteralIncrementalIndex == headerFieldLiteralIncrementalIndex:
		return reprLiteralIncremental
	case b&headerFieldDynamicSizeUpdate == headerFieldDynamicSizeUpdate:
		return reprSizeUpdate
	case b&headerFieldLiteralNeverIndexed == headerFieldLiteralNeverIndexed:
		return reprLiteralNever
	default:
		return reprLiteralNotIndexed
	}
}

// Encoder holds one side's compression context and emits header blocks.
// It is not safe for concurrent use: HTTP/2 already serialises header
// block production per connection direction (RFC 7540 section 4.3), and
// the encoder has no internal locking.
type Encoder struct {
	ctx                 *Context
	pendingSizeUpdate   bool
	pendingSizeUpdateTo int
}

// NewEncoder creates an encoder with an empty dynamic table of the given
// maximum size.
func NewEncoder(dynamicTableSizeMax int) *Encoder {
	return &Encoder{ctx: NewContext(dynamicTableSizeMax)}
}

// Context exposes the encoder's compression context, e.g. to inspect
// CurrentSize() in tests or metrics.
func (encoder *Encoder) Context() *Context { return encoder.ctx }

// SetDynamicTableMaxSize updates the encoder's dynamic table maximum
// size, evicting entries as needed, and arranges for the next encoded
// header field to be preceded by a dynamic-table-size-update
// representation announcing the new size on the wire.
func (encoder *Encoder) SetDynamicTableMaxSize(newMaxSize int) {
	_ = encoder.ctx.Resize(newMaxSize, nil)
	encoder.pendingSizeUpdate = true
	encoder.pendingSizeUpdateTo = newMaxSize
}

// EncodeInteger encodes number under prefixBits, RFC 7541 section 5.1.
func (encoder *Encoder) EncodeInteger(number int, prefixBits int) []byte {
	return EncodeInteger(number, prefixBits)
}

// Encode is a convenience that encodes headers in order using
// incremental indexing and Huffman-encoded strings throughout. A header
// marked Sensitive is instead encoded as never-indexed (RFC 7541
// section 6.2.3), regardless of this policy.
func (encoder *Encoder) Encode(headers []Header) ([]byte, error) {
	var out []byte
	for _, h := range headers {
		enc, err := encoder.EncodeIndexed(h, true)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// EncodeIndexed encodes a single header field, inserting it into the
// dynamic table unless it is Sensitive or already fully present in the
// table (RFC 7541 section 6.2.1 / Appendix C.2.1).
func (encoder *Encoder) EncodeIndexed(header Header, huffman bool) ([]byte, error) {
	return encoder.encodeHeaderField(header, huffman, true)
}

// EncodeNoDynamicIndexing encodes a single header field without ever
// inserting it into the dynamic table (RFC 7541 section 6.2.2 /
// Appendix C.2.2).
func (encoder *Encoder) EncodeNoDynamicIndexing(header Header, huffman bool) ([]byte, error) {
	return encoder.encodeHeaderField(header, huffman, false)
}

func (encoder *Encoder) encodeHeaderField(header Header, huffman bool, addDynamicIndex bool) ([]byte, error) {
	var encoded []byte

	if encoder.pendingSizeUpdate {
		update := EncodeInteger(encoder.pendingSizeUpdateTo, 5)
		update[0] |= headerFieldDynamicSizeUpdate
		encoded = append(encoded, update...)
		encoder.pendingSizeUpdate = false
	}

	if header.Sensitive {
		match := encoder.ctx.Find(header.Name, "")
		var indexed []byte
		if match.Kind != NoMatch {
			indexed = EncodeInteger(match.Index, 4)
		} else {
			indexed = EncodeInteger(0, 4)
		}
		indexed[0] |= headerFieldLiteralNeverIndexed
		encoded = append(encoded, indexed...)
		if match.Kind == NoMatch {
			encoded = append(encoded, encodeLiteralString(header.Name, 7, huffman)...)
		}
		encoded = append(encoded, encodeLiteralString(header.Value, 7, huffman)...)
		return encoded, nil
	}

	match := encoder.ctx.Find(header.Name, header.Value)
	if match.Kind == FullMatch {
		indexed := EncodeInteger(match.Index, 7)
		indexed[0] |= headerFieldIndexed
		return append(encoded, indexed...), nil
	}

	// Incremental indexing carries the name index in a 6-bit prefix; the
	// no-indexing form uses a 4-bit prefix (RFC 7541 sections 6.2.1/6.2.2).
	prefixBits := 6
	if !addDynamicIndex {
		prefixBits = 4
	}
	var indexed []byte
	if match.Kind == NameMatch {
		indexed = EncodeInteger(match.Index, prefixBits)
	} else {
		indexed = EncodeInteger(0, prefixBits)
	}

	if addDynamicIndex {
		indexed[0] |= headerFieldLiteralIncrementalIndex
		encoder.ctx.Add(Header{Name: header.Name, Value: header.Value})
	} else {
		indexed[0] |= headerFieldLiteralNotIndexed
	}
	encoded = append(encoded, indexed...)
	if match.Kind == NoMatch {
		encoded = append(encoded, encodeLiteralString(header.Name, 7, huffman)...)
	}
	encoded = append(encoded, encodeLiteralString(header.Value, 7, huffman)...)
	return encoded, nil
}

func encodeLiteralString(str string, prefixBits int, huffman bool) []byte {
	var value []byte
	if huffman {
		value = HuffmanEncode([]byte(str))
	} else {
		value = []byte(str)
	}

	length := EncodeInteger(len(value), prefixBits)
	if huffman {
		length[0] |= huffmanEncodedFlag
	}
	return append(length, value...)
}

// Decoder holds one side's compression context and parses header blocks.
// A single decoder instance must be used for the lifetime of an HTTP/2
// connection in one direction (RFC 7540 section 4.3): the dynamic table
// it accumulates is part of that connection's compression state.
type Decoder struct {
	ctx *Context

	integerValueMax         int
	integerEncodedLengthMax int
	stringLiteralLengthMax  int
}

// NewDecoder creates a decoder with an empty dynamic table of the given
// maximum size and the package's default integer/string limits.
func NewDecoder(dynamicTableSizeMax int) *Decoder {
	return &Decoder{
		ctx:                     NewContext(dynamicTableSizeMax),
		integerValueMax:         DefaultMaxIntegerValue,
		integerEncodedLengthMax: DefaultMaxIntegerEncodedLength,
		stringLiteralLengthMax:  DefaultMaxStringLiteralLength,
	}
}

// Context exposes the decoder's compression context.
func (decoder *Decoder) Context() *Context { return decoder.ctx }

// SetDynamicTableMaxSize directly sets the decoder's dynamic table
// maximum size, evicting entries as needed. Unlike a wire
// dynamic-table-size-update, this is not checked against a
// settings_limit: it exists for the HTTP/2 layer to configure the
// decoder directly, e.g. at connection setup.
func (decoder *Decoder) SetDynamicTableMaxSize(newMaxSize int) {
	_ = decoder.ctx.Resize(newMaxSize, nil)
}

// SetMaxIntegerValue sets the largest integer value decode will accept;
// anything above it is ErrIntegerValueTooLarge.
func (decoder *Decoder) SetMaxIntegerValue(value int) { decoder.integerValueMax = value }

// SetMaxIntegerEncodedLength sets the maximum number of octets decode
// will read while parsing a single integer.
func (decoder *Decoder) SetMaxIntegerEncodedLength(length int) {
	decoder.integerEncodedLengthMax = length
}

// SetMaxStringLiteralLength sets the maximum encoded length of a string
// literal. For Huffman-encoded literals the check is against the
// compressed length, not the decoded length.
func (decoder *Decoder) SetMaxStringLiteralLength(length int) {
	decoder.stringLiteralLengthMax = length
}

// DecodeInteger decodes an integer under prefixBits using the decoder's
// configured limits, RFC 7541 section 5.1.
func (decoder *Decoder) DecodeInteger(buf []byte, prefixBits int) (rest []byte, maskedFirstOctet int, value int, err error) {
	return decodeInteger(buf, prefixBits, decoder.integerValueMax, decoder.integerEncodedLengthMax)
}

// Decode parses a complete header block fragment and returns its headers
// in wire order. Equivalent to DecodeWithLimit(block, nil).
func (decoder *Decoder) Decode(block []byte) ([]Header, error) {
	return decoder.DecodeWithLimit(block, nil)
}

// DecodeWithLimit parses a complete header block fragment, rejecting any
// dynamic-table-size-update whose new size exceeds settingsLimit (the
// HTTP/2-advertised SETTINGS_HEADER_TABLE_SIZE) when settingsLimit is
// non-nil. Size updates are only legal at the very start of the block,
// at most two in a row (RFC 7541 section 4.2); one after any field
// representation has been decoded is ErrDecodeError. The whole fragment
// is decoded as a unit: there is no partial/streaming entry point.
func (decoder *Decoder) DecodeWithLimit(block []byte, settingsLimit *int) ([]Header, error) {
	headers := make([]Header, 0, 8)
	buf := block
	leadingSizeUpdates := 0
	bodyStarted := false

	for len(buf) > 0 {
		kind := classifyRepresentation(buf[0])

		if kind == reprSizeUpdate {
			if bodyStarted {
				return nil, decodeErrorf("dynamic table size update after a field representation")
			}
			if leadingSizeUpdates >= 2 {
				return nil, decodeErrorf("more than two consecutive dynamic table size updates")
			}
			rest, err := decoder.parseDynamicSizeUpdate(buf, settingsLimit)
			if err != nil {
				return nil, err
			}
			buf = rest
			leadingSizeUpdates++
			continue
		}

		bodyStarted = true
		rest, header, err := decoder.parseHeaderField(buf, kind)
		if err != nil {
			return nil, err
		}
		buf = rest
		if header != nil {
			headers = append(headers, *header)
		}
	}
	return headers, nil
}

func (decoder *Decoder) readPrefixedLengthString(buf []byte, prefixBits int) (rest []byte, str string, err error) {
	rest, firstOctet, length, err := decoder.DecodeInteger(buf, prefixBits)
	if err != nil {
		return buf, "", err
	}

	if length > decoder.stringLiteralLengthMax {
		return buf, "", ErrStringLiteralLengthTooLong
	}
	if len(rest) < length {
		return nil, "", decodeErrorf("ran out of data decoding a %d-octet string literal", length)
	}

	if firstOctet&huffmanEncodedFlag == huffmanEncodedFlag {
		decoded, err := HuffmanDecode(rest[:length])
		if err != nil {
			return rest, "", err
		}
		return rest[length:], string(decoded), nil
	}
	return rest[length:], string(rest[:length]), nil
}

func (decoder *Decoder) parseDynamicSizeUpdate(encoded []byte, settingsLimit *int) ([]byte, error) {
	rest, _, size, err := decoder.DecodeInteger(encoded, 5)
	if err != nil {
		return nil, err
	}
	if err := decoder.ctx.Resize(size, settingsLimit); err != nil {
		return nil, err
	}
	traceResize(size, settingsLimit)
	return rest, nil
}

func (decoder *Decoder) parseHeaderField(encoded []byte, kind reprKind) ([]byte, *Header, error) {
	switch kind {
	case reprIndexed:
		return decoder.parseHeaderFieldIndexed(encoded)
	case reprLiteralIncremental:
		return decoder.parseHeaderFieldIncrementalIndex(encoded)
	case reprLiteralNever:
		rest, header, err := decoder.parseHeaderFieldNotIndexed(encoded, 4)
		if err != nil {
			return rest, header, err
		}
		header.Sensitive = true
		return rest, header, nil
	default:
		return decoder.parseHeaderFieldNotIndexed(encoded, 4)
	}
}

func (decoder *Decoder) parseHeaderFieldIndexed(encoded []byte) ([]byte, *Header, error) {
	rest, _, index, err := decoder.DecodeInteger(encoded, 7)
	if err != nil {
		return nil, nil, err
	}
	h, err := decoder.ctx.Lookup(index)
	if err != nil {
		return nil, nil, err
	}
	traceRepresentation("indexed", encoded[0], index)
	return rest, &Header{Name: h.Name, Value: h.Value}, nil
}

func (decoder *Decoder) parseHeaderFieldIncrementalIndex(encoded []byte) ([]byte, *Header, error) {
	rest, _, index, err := decoder.DecodeInteger(encoded, 6)
	if err != nil {
		return nil, nil, err
	}

	var name string
	if index == 0 {
		rest, name, err = decoder.readPrefixedLengthString(rest, 7)
		if err != nil {
			return nil, nil, err
		}
	} else {
		h, err := decoder.ctx.Lookup(index)
		if err != nil {
			return nil, nil, err
		}
		name = h.Name
	}

	rest, value, err := decoder.readPrefixedLengthString(rest, 7)
	if err != nil {
		return nil, nil, err
	}

	decoder.ctx.Add(Header{Name: name, Value: value})
	traceRepresentation("literal-incremental", encoded[0], index)
	return rest, &Header{Name: name, Value: value}, nil
}

// parseHeaderFieldNotIndexed parses both the no-indexing (section 6.2.2)
// and never-indexed (section 6.2.3) forms, which are structurally
// identical on the wire and differ only in the Sensitive flag the caller
// (parseHeaderField) attaches afterward.
func (decoder *Decoder) parseHeaderFieldNotIndexed(encoded []byte, prefixBits int) ([]byte, *Header, error) {
	rest, _, index, err := decoder.DecodeInteger(encoded, prefixBits)
	if err != nil {
		return nil, nil, err
	}

	var name string
	if index == 0 {
		rest, name, err = decoder.readPrefixedLengthString(rest, 7)
		if err != nil {
			return nil, nil, err
		}
	} else {
		h, err := decoder.ctx.Lookup(index)
		if err != nil {
			return nil, nil, err
		}
		name = h.Name
	}

	rest, value, err := decoder.readPrefixedLengthString(rest, 7)
	if err != nil {
		return nil, nil, err
	}

	traceRepresentation("literal-not-indexed", encoded[0], index)
	return rest, &Header{Name: name, Value: value}, nil
}
