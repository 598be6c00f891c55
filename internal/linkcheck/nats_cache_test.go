package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheKey_HashesURLToKVCharset(t *testing.T) {
	key := cacheKey("https://example.com/path?q=1#frag")

	// JetStream KV keys may not contain ':', '/', '?' or '#'.
	require.NotContains(t, key, ":")
	require.NotContains(t, key, "/")
	require.NotContains(t, key, "?")
	require.NotContains(t, key, "#")
	require.Len(t, key, 64) // sha256 hex
}

func TestCacheKey_DistinctURLsDistinctKeys(t *testing.T) {
	require.NotEqual(t, cacheKey("https://example.com/a"), cacheKey("https://example.com/b"))
	require.Equal(t, cacheKey("https://example.com/a"), cacheKey("https://example.com/a"))
}
