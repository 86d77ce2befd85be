package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names a text encoding an upload may be written in
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1254 Encoding = "windows-1254"
	Windows1252 Encoding = "windows-1252"
)

// candidateEncodings is the order in which encodings are tried
var candidateEncodings = []Encoding{UTF8, Windows1254, Windows1252}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding returns the first candidate encoding the data decodes
// cleanly in. The second result is false when no candidate fits.
func DetectEncoding(data []byte) (Encoding, bool) {
	for _, enc := range candidateEncodings {
		if _, ok := decodeAs(enc, data); ok {
			return enc, true
		}
	}
	return "", false
}

// Decode converts data to a UTF-8 string using the detected encoding
func Decode(data []byte) (string, Encoding, error) {
	enc, ok := DetectEncoding(data)
	if !ok {
		return "", "", newError(EncodingUndetermined,
			"The file encoding should be one of UTF-8, Windows 1254, or Windows 1252.")
	}
	text, _ := decodeAs(enc, data)
	return text, enc, nil
}

func decodeAs(enc Encoding, data []byte) (string, bool) {
	switch enc {
	case UTF8:
		if !utf8.Valid(data) {
			return "", false
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), true
	case Windows1254:
		return decodeCodePage(charmap.Windows1254, undefinedIn1254, data)
	case Windows1252:
		return decodeCodePage(charmap.Windows1252, undefinedIn1252, data)
	}
	return "", false
}

// Bytes the Windows code pages leave unassigned. charmap follows the WHATWG
// tables, which map them to C1 controls instead of failing.
var (
	undefinedIn1252 = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}
	undefinedIn1254 = []byte{0x81, 0x8D, 0x8E, 0x8F, 0x90, 0x9D, 0x9E}
)

func decodeCodePage(cm *charmap.Charmap, undefined []byte, data []byte) (string, bool) {
	for _, b := range undefined {
		if bytes.IndexByte(data, b) >= 0 {
			return "", false
		}
	}
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}
