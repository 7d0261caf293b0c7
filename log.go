package hpack

import "go.uber.org/zap"

// Logger is the package-wide trace logger. It defaults to zap's no-op
// logger: the codec is a pure function over bytes per its design (no I/O,
// no hidden side effects), so nothing here logs unless a caller opts in
// by assigning a configured *zap.Logger, e.g. for debugging a wire
// interoperability failure.
var Logger = zap.NewNop()

func traceRepresentation(kind string, firstOctet byte, index int) {
	Logger.Debug("decoded representation",
		zap.String("representation", kind),
		zap.Binary("first_octet", []byte{firstOctet}),
		zap.Int("index", index),
	)
}

func traceResize(newSize int, settingsLimit *int) {
	fields := []zap.Field{zap.Int("new_size", newSize)}
	if settingsLimit != nil {
		fields = append(fields, zap.Int("settings_limit", *settingsLimit))
	}
	Logger.Debug("dynamic table resize", fields...)
}
