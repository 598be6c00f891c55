package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFlags_NoFields_DefaultsToSidebarShown(t *testing.T) {
	flags, err := DecodeFlags(map[string]any{})
	require.NoError(t, err)
	require.True(t, flags.Sidebar)
	require.Empty(t, flags.Title)
}

func TestDecodeFlags_SidebarFalse_SuppressesSidebar(t *testing.T) {
	flags, err := DecodeFlags(map[string]any{"sidebar": false})
	require.NoError(t, err)
	require.False(t, flags.Sidebar)
}

func TestDecodeFlags_SidebarWrongType_ReturnsError(t *testing.T) {
	_, err := DecodeFlags(map[string]any{"sidebar": "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sidebar")
}

func TestDecodeFlags_TitleString_Carried(t *testing.T) {
	flags, err := DecodeFlags(map[string]any{"title": "Architecture"})
	require.NoError(t, err)
	require.Equal(t, "Architecture", flags.Title)
}

func TestDecodeFlags_UnknownKeys_Ignored(t *testing.T) {
	flags, err := DecodeFlags(map[string]any{"lang": "bsl", "weight": 3})
	require.NoError(t, err)
	require.True(t, flags.Sidebar)
}
