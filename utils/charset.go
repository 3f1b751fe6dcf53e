package utils

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var xmlEncodingDecl = regexp.MustCompile(`(?i)(<\?xml[^>]*encoding=["'])([^"']+)(["'])`)

// CharsetReader converts r from the named charset to UTF-8. It fits
// xml.Decoder.CharsetReader.
func CharsetReader(label string, r io.Reader) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return r, nil
	}
	if enc, err := htmlindex.Get(label); err == nil {
		return transform.NewReader(r, enc.NewDecoder()), nil
	}
	log.Debug().Str("charset", label).Msg("charset unknown to x/text, trying fallback")
	cr, err := fallbackReader(label, r)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported charset %q", label)
	}
	return cr, nil
}

// DecodeXML returns data as UTF-8 with the XML declaration rewritten to say
// so. A byte order mark wins over the declared encoding.
func DecodeXML(data []byte) ([]byte, error) {
	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode byte order mark")
		}
		return rewriteDecl(out), nil
	}

	m := xmlEncodingDecl.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	r, err := CharsetReader(string(m[2]), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", m[2])
	}
	return rewriteDecl(out), nil
}

// DecodeXMLAs decodes data from charset regardless of what its XML
// declaration says.
func DecodeXMLAs(data []byte, charset string) ([]byte, error) {
	r, err := CharsetReader(charset, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", charset)
	}
	return rewriteDecl(out), nil
}

func rewriteDecl(data []byte) []byte {
	return xmlEncodingDecl.ReplaceAll(data, []byte("${1}UTF-8${3}"))
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(data, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}
