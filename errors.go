package hpack

import (
	"errors"
	"fmt"
)

// ErrDecodeError is the sentinel category for every malformed-input failure
// produced while parsing a header block: truncated integers and strings,
// out-of-range indices, invalid Huffman sequences, and size-update
// placement violations. Callers should treat any error satisfying
// errors.Is(err, ErrDecodeError) as fatal for the current header block and,
// per RFC 7540 section 4.3, for the whole HTTP/2 connection.
var ErrDecodeError = errors.New("hpack: decode error")

// ErrEncodeError is reserved for future use; the current encoder policy
// never fails to encode a header list.
var ErrEncodeError = errors.New("hpack: encode error")

// ErrIntegerValueTooLarge, ErrIntegerEncodedLengthTooLong,
// ErrStringLiteralLengthTooLong, ErrHuffmanDecodeFailure, and
// ErrIndexOutOfRange are specific causes within the ErrDecodeError
// category; callers may match on either the specific error or the category.
var (
	ErrIntegerValueTooLarge        = fmt.Errorf("%w: integer value larger than max value", ErrDecodeError)
	ErrIntegerEncodedLengthTooLong = fmt.Errorf("%w: integer encoded length is too long", ErrDecodeError)
	ErrStringLiteralLengthTooLong  = fmt.Errorf("%w: string literal length is too long", ErrDecodeError)
	ErrHuffmanDecodeFailure        = fmt.Errorf("%w: invalid huffman code encountered", ErrDecodeError)
	ErrIndexOutOfRange             = fmt.Errorf("%w: index not in addressable space", ErrDecodeError)
)

func decodeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDecodeError}, args...)...)
}
