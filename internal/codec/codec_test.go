package codec

import (
	"bytes"
	"testing"
)

type doc struct {
	B     int               `json:"b" cbor:"b"`
	A     string            `json:"a" cbor:"a"`
	Attrs map[string]string `json:"attrs" cbor:"attrs"`
}

func TestCBORDeterministic(t *testing.T) {
	v := doc{B: 1, A: "x", Attrs: map[string]string{"z": "1", "a": "2", "m": "3"}}
	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, _ := Marshal(v)
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding is not deterministic")
		}
	}
	var got doc
	if err := Unmarshal(first, &got); err != nil || got.Attrs["m"] != "3" {
		t.Fatalf("unmarshal: %+v %v", got, err)
	}
	diag, err := Diagnose(first)
	if err != nil || diag == "" {
		t.Fatalf("diagnose: %q %v", diag, err)
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	for _, f := range []Format{JSON, CBOR} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, f, doc{B: 7, A: "y"}, true); err != nil {
				t.Fatalf("encode: %v", err)
			}
			var got doc
			if err := Decode(&buf, f, &got); err != nil || got.B != 7 || got.A != "y" {
				t.Fatalf("decode: %+v %v", got, err)
			}
		})
	}
}

func TestNegotiate(t *testing.T) {
	cases := map[string]Format{
		"":                                   JSON,
		"application/cbor":                   CBOR,
		"application/json, application/cbor": JSON,
		"application/cbor;q=0.9, */*":        CBOR,
		"text/html, */*":                     JSON,
	}
	for accept, want := range cases {
		if got := Negotiate(accept); got != want {
			t.Fatalf("Negotiate(%q) = %s, want %s", accept, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("CBOR"); err != nil || f != CBOR {
		t.Fatalf("parse cbor: %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error")
	}
	if FormatForPath("out.cbor") != CBOR || FormatForPath("out.json") != JSON {
		t.Fatalf("format for path")
	}
}
