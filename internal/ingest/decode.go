package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DecodeHTML converts raw report bytes to a UTF-8 string. With an empty
// label the encoding is taken from the BOM or a <meta> declaration, falling
// back to UTF-8 detection and then to windows-1251. Invalid sequences are
// replaced.
func DecodeHTML(data []byte, label string) (string, error) {
	enc, name, err := detectEncoding(data, label)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	s := strings.TrimPrefix(string(out), "\ufeff")
	return strings.ToValidUTF8(s, "\ufffd"), nil
}

func detectEncoding(data []byte, label string) (encoding.Encoding, string, error) {
	if label = strings.TrimSpace(label); label != "" {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, "", fmt.Errorf("unknown charset %q: %w", label, err)
		}
		name, _ := htmlindex.Name(enc)
		return enc, name, nil
	}
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if !certain && name == "windows-1252" && !declaresCharset(data) {
		// Undeclared non-UTF-8 reports come from Russian brokers.
		return charmap.Windows1251, "windows-1251", nil
	}
	return enc, name, nil
}

// declaresCharset reports whether the <meta> prescan window names a charset.
func declaresCharset(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("charset"))
}
