package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestIsUTF8Alias(t *testing.T) {
	for _, name := range []string{"UTF-8", "utf8", "ASCII", "us-ascii", " Utf-8 "} {
		assert.True(t, IsUTF8Alias(name), name)
	}
	for _, name := range []string{"GB2312", "Shift_JIS", "", "utf-16"} {
		assert.False(t, IsUTF8Alias(name), name)
	}
}

func TestFind(t *testing.T) {
	for _, name := range []string{"GB2312", "gbk", "Shift_JIS", "ISO-8859-1", "EUC-KR", "Big5"} {
		enc, ok := Find(name)
		assert.True(t, ok, name)
		assert.NotNil(t, enc, name)
	}

	_, ok := Find("no-such-charset")
	assert.False(t, ok)
	_, ok = Find("")
	assert.False(t, ok)
}

func TestCanonical(t *testing.T) {
	for _, name := range []string{"GB2312", "gb2312", " GB2312 ", "GBK"} {
		assert.Equal(t, "gbk", Canonical(name), name)
	}
	assert.Equal(t, "shift_jis", Canonical("Shift_JIS"))
	assert.Equal(t, Canonical("sjis"), Canonical("SHIFT_JIS"))
	assert.Equal(t, "windows-1252", Canonical("ISO-8859-1"))
	assert.Equal(t, "no-such-charset", Canonical(" No-Such-Charset "))
}

func TestDecode(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("黑棋"))
	require.NoError(t, err)
	enc, ok := Find("GB2312")
	require.True(t, ok)
	out, err := Decode(gbk, enc)
	require.NoError(t, err)
	assert.Equal(t, "黑棋", string(out))

	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("本因坊"))
	require.NoError(t, err)
	enc, ok = Find("Shift_JIS")
	require.True(t, ok)
	out, err = Decode(sjis, enc)
	require.NoError(t, err)
	assert.Equal(t, "本因坊", string(out))

	enc, ok = Find("ISO-8859-1")
	require.True(t, ok)
	out, err = Decode([]byte{'C', 'a', 'f', 0xE9}, enc)
	require.NoError(t, err)
	assert.Equal(t, "Café", string(out))
}
