package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	testCases := []struct {
		body     string
		expected string
	}{
		{body: "<html><head><title>401 Authorization Required</title></head></html>", expected: "401 Authorization Required"},
		{body: "<HTML><HEAD><TITLE>SCN [ user: alice ]\n   search</TITLE></HEAD>", expected: "SCN [ user: alice ] search"},
		{body: "<html><body>no title</body></html>", expected: ""},
		{body: "", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Title(test.body))
	}
}

func TestDecode(t *testing.T) {
	// "日本" in Shift_JIS
	sjis := []byte{0x93, 0xfa, 0x96, 0x7b}

	decoded, err := Decode(sjis, "text/html; charset=shift_jis")
	require.NoError(t, err)
	require.Equal(t, "日本", decoded)

	withMeta := append([]byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=Shift_JIS"></head><body>`), sjis...)
	decoded, err = Decode(withMeta, "text/html")
	require.NoError(t, err)
	require.Contains(t, decoded, "日本")

	decoded, err = Decode([]byte("plain ascii 12.5 / 1M"), "text/html; charset=utf-8")
	require.NoError(t, err)
	require.Equal(t, "plain ascii 12.5 / 1M", decoded)
}

func TestDecodeLateUtf8(t *testing.T) {
	// charset sniffing only looks at the first 1024 bytes
	body := "<html><body>" + strings.Repeat("x", 1100) + " 語 Syntax error</body></html>"

	decoded, err := Decode([]byte(body), "text/html")
	require.NoError(t, err)
	require.Equal(t, body, decoded)

	decoded, err = Decode([]byte(body), "")
	require.NoError(t, err)
	require.Equal(t, body, decoded)
}
