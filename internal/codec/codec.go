// Package codec encodes review documents as JSON or as deterministic CBOR.
//
// CBOR output uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// document always produces the same bytes and exports can be compared or
// hashed directly.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format is a document encoding.
type Format int

const (
	JSON Format = iota
	CBOR
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

func (f Format) String() string {
	if f == CBOR {
		return "cbor"
	}
	return "json"
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == CBOR {
		return ContentTypeCBOR
	}
	return ContentTypeJSON
}

// ParseFormat accepts "json" or "cbor".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	default:
		return JSON, fmt.Errorf("codec: unknown format %q", s)
	}
}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".cbor") {
		return CBOR
	}
	return JSON
}

// Negotiate picks a format from an HTTP Accept header. CBOR is chosen only
// when it is listed before JSON.
func Negotiate(accept string) Format {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case ContentTypeCBOR:
			return CBOR
		case ContentTypeJSON, "*/*", "application/*":
			return JSON
		}
	}
	return JSON
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to deterministic CBOR.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// Diagnose renders CBOR data in diagnostic notation.
func Diagnose(data []byte) (string, error) { return cbor.Diagnose(data) }

// Encode writes v to w in format f. JSON output is indented when pretty.
func Encode(w io.Writer, f Format, v any, pretty bool) error {
	if f == CBOR {
		return encMode.NewEncoder(w).Encode(v)
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Decode reads one value in format f from r into v.
func Decode(r io.Reader, f Format, v any) error {
	if f == CBOR {
		return decMode.NewDecoder(r).Decode(v)
	}
	return json.NewDecoder(r).Decode(v)
}
