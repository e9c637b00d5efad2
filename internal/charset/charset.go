// Package charset turns the names found in SGF CA properties into decoders and
// converts legacy-encoded records to UTF-8.
package charset

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Lookup resolves a charset name to a decoder. ok is false when the name is unknown.
type Lookup func(name string) (enc encoding.Encoding, ok bool)

var utf8Aliases = map[string]bool{
	"utf8":     true,
	"utf-8":    true,
	"ascii":    true,
	"us-ascii": true,
}

// IsUTF8Alias reports whether name needs no conversion at all.
func IsUTF8Alias(name string) bool {
	return utf8Aliases[strings.ToLower(strings.TrimSpace(name))]
}

// Find is the default Lookup. WHATWG labels are tried first, so "GB2312" resolves to
// GBK and "ISO-8859-1" to windows-1252 the way browsers do; IANA names are the
// fallback.
func Find(name string) (encoding.Encoding, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, true
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, true
	}
	return nil, false
}

// Canonical names the encoding behind a declared charset, so that "gb2312",
// " GB2312" and "GBK" all report "gbk". Unknown names are trimmed and lowercased.
func Canonical(name string) string {
	if enc, ok := Find(name); ok {
		if n, err := htmlindex.Name(enc); err == nil {
			return n
		}
		if n, err := ianaindex.IANA.Name(enc); err == nil {
			return strings.ToLower(n)
		}
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Decode converts buf from enc to UTF-8.
func Decode(buf []byte, enc encoding.Encoding) ([]byte, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(buf), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
