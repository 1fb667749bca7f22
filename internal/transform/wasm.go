// Package transform contains the built-in instrumentation routines and
// the factory table that manifest discovery binds them through.
//
// Routines here operate on the WASM binary section framing directly:
// a module is the 8-byte preamble (magic + version) followed by sections
// of the form (id byte, uleb128 payload size, payload).
package transform

import (
	"encoding/binary"
	"fmt"
)

// wasmPreamble is "\0asm" followed by binary version 1.
var wasmPreamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const customSectionID = 0x00

// checkPreamble verifies module starts with the WASM magic and version.
func checkPreamble(module []byte) error {
	if len(module) < len(wasmPreamble) {
		return fmt.Errorf("module too short (%d bytes) to be a WASM binary", len(module))
	}
	for i, b := range wasmPreamble {
		if module[i] != b {
			return fmt.Errorf("module does not start with the WASM preamble")
		}
	}
	return nil
}

// appendUleb128 appends the unsigned LEB128 encoding of v to dst.
func appendUleb128(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// readUleb128 decodes an unsigned LEB128 value from the front of b,
// returning the value and the number of bytes consumed.
func readUleb128(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, fmt.Errorf("truncated or overlong LEB128 value")
	}
	return v, n, nil
}

// section is one decoded module section.
type section struct {
	id      byte
	payload []byte
}

// name returns the custom section name for id 0 sections, with the
// remaining payload, or "" for non-custom sections.
func (s section) name() (string, []byte) {
	if s.id != customSectionID {
		return "", nil
	}
	n, read, err := readUleb128(s.payload)
	if err != nil || uint64(len(s.payload)-read) < n {
		return "", nil
	}
	return string(s.payload[read : read+int(n)]), s.payload[read+int(n):]
}

// decodeSections splits a module body into its sections.
func decodeSections(module []byte) ([]section, error) {
	if err := checkPreamble(module); err != nil {
		return nil, err
	}

	var sections []section
	rest := module[len(wasmPreamble):]
	for len(rest) > 0 {
		id := rest[0]
		size, n, err := readUleb128(rest[1:])
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", len(sections), err)
		}
		body := rest[1+n:]
		if uint64(len(body)) < size {
			return nil, fmt.Errorf("section %d: payload truncated (want %d bytes, have %d)", len(sections), size, len(body))
		}
		sections = append(sections, section{id: id, payload: body[:size]})
		rest = body[size:]
	}
	return sections, nil
}

// encodeModule reassembles a module from its sections.
func encodeModule(sections []section) []byte {
	out := append([]byte{}, wasmPreamble...)
	for _, s := range sections {
		out = append(out, s.id)
		out = appendUleb128(out, uint64(len(s.payload)))
		out = append(out, s.payload...)
	}
	return out
}

// encodeCustomSection builds a custom section payload carrying name and data.
func encodeCustomSection(name string, data []byte) section {
	payload := appendUleb128(nil, uint64(len(name)))
	payload = append(payload, name...)
	payload = append(payload, data...)
	return section{id: customSectionID, payload: payload}
}
