// Package ulog decodes ULog flight logs.
//
// # Wire format
//
// A file is a 16-byte header followed by length-prefixed messages:
//
//	header:  magic[7] "ULog\x01\x12\x35" | version u8 | start timestamp u64 (µs)
//	message: size u16 | type u8 | body[size]
//
// The definitions section (flag bits, formats, info, parameters) precedes the
// data section (subscriptions, data records, logged strings, sync markers,
// dropouts). All integers are little-endian.
//
// # Decoding
//
// Formats are kept in an append-only map by name. A subscription binds a
// numeric msg_id and an instance (multi_id) to a format and resolves it once
// into an immutable Layout: flattened columns with byte offsets. Data records
// are validated against the Layout of the msg_id they carry and handed to a
// RecordSink in arrival order.
//
//	file, err := ulog.Decode(r, sink, ulog.Options{Topics: []string{"commander_state"}})
//	if err != nil {
//	    var ferr *ulog.FormatError
//	    errors.As(err, &ferr)
//	}
//	for _, d := range file.Diagnostics.Items() {
//	    _ = d // skipped records, truncation, unknown messages
//	}
//
// Errors: FormatError and SchemaMismatchError abort decoding. IntegrityError
// is per record; it is recorded in Diagnostics and decoding continues unless
// Options.Strict is set.
package ulog
