package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/service/content"
)

func TestSHA256Base64URLIsStable(t *testing.T) {
	b := []byte("metadata.json:ios")

	first := content.SHA256Base64URL(b)
	second := content.SHA256Base64URL(b)

	require.Equal(t, first, second)
	require.NotContains(t, first, "+")
	require.NotContains(t, first, "/")
	require.NotContains(t, first, "=")
}

func TestMD5HexIsLowercaseHex(t *testing.T) {
	got := content.MD5Hex([]byte("hello"))
	require.Equal(t, "5d41402abc4b2a76b9719d911017c592", got)
}

func TestHashToUUIDFormatsWithDashes(t *testing.T) {
	hash := content.SHA256Base64URL([]byte("some-metadata:android"))

	uuid := content.HashToUUID(hash)

	require.Len(t, uuid, 36)
	require.Equal(t, byte('-'), uuid[8])
	require.Equal(t, byte('-'), uuid[13])
	require.Equal(t, byte('-'), uuid[18])
	require.Equal(t, byte('-'), uuid[23])
}

func TestHashToUUIDDeterministic(t *testing.T) {
	hash := content.SHA256Base64URL([]byte("payload"))

	require.Equal(t, content.HashToUUID(hash), content.HashToUUID(hash))
}

func TestHashToUUIDPadsShortInput(t *testing.T) {
	got := content.HashToUUID("abc")
	require.Equal(t, "abc00000-0000-0000-0000-000000000000", got)
}
