package utils

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeXML(t *testing.T) {
	t.Run("utf-8 untouched", func(t *testing.T) {
		in := []byte(`<?xml version="1.0" encoding="UTF-8"?><a>é</a>`)
		out, err := DecodeXML(in)
		require.NoError(t, err)
		assert.Equal(t, string(in), string(out))
	})

	t.Run("no declaration", func(t *testing.T) {
		out, err := DecodeXML([]byte("<a/>"))
		require.NoError(t, err)
		assert.Equal(t, "<a/>", string(out))
	})

	t.Run("iso-8859-1", func(t *testing.T) {
		in, err := charmap.ISO8859_1.NewEncoder().String(`<?xml version="1.0" encoding="iso-8859-1"?><a>Größe</a>`)
		require.NoError(t, err)
		out, err := DecodeXML([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><a>Größe</a>`, string(out))
	})

	t.Run("gb2312", func(t *testing.T) {
		in, err := simplifiedchinese.GBK.NewEncoder().String(`<?xml version='1.0' encoding='gb2312'?><a>主板</a>`)
		require.NoError(t, err)
		out, err := DecodeXML([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, `<?xml version='1.0' encoding='UTF-8'?><a>主板</a>`, string(out))
	})

	t.Run("utf-16 bom", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		in, err := enc.String(`<?xml version="1.0" encoding="UTF-16"?><a>x</a>`)
		require.NoError(t, err)
		out, err := DecodeXML([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><a>x</a>`, string(out))
	})
}

func TestCharsetReader(t *testing.T) {
	r, err := CharsetReader("windows-1252", strings.NewReader("\x80"))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "€", string(out))

	r, err = CharsetReader("UTF-8", strings.NewReader("plain"))
	require.NoError(t, err)
	out, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}
