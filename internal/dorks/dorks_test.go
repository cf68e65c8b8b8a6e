package dorks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrategyBlocks(t *testing.T) {
	social := SocialStrategy{}.Dork("John Doe")
	require.Equal(t, `site:facebook.com "John Doe" OR site:twitter.com "John Doe"`, social)

	files := FilesStrategy{}.Dork("John Doe")
	require.Equal(t, `"John Doe" filetype:pdf OR "John Doe" filetype:xls`, files)

	logs := LogsStrategy{}.Dork("John Doe")
	require.Equal(t, `site:pastebin.com "John Doe" OR "John Doe" intext:password`, logs)
}

func TestForCategory(t *testing.T) {
	strategy, err := ForCategory("social")
	require.NoError(t, err)
	require.IsType(t, SocialStrategy{}, strategy)

	_, err = ForCategory("darkweb")
	require.Error(t, err)
}

func TestCategories(t *testing.T) {
	require.ElementsMatch(t, []string{"social", "files", "logs"}, Categories())
}

func TestBuildCombined(t *testing.T) {
	query, err := BuildCombined("John Doe", []string{"social", "files"})
	require.NoError(t, err)
	require.Equal(t,
		`site:facebook.com "John Doe" OR site:twitter.com "John Doe"`+
			` AND `+
			`"John Doe" filetype:pdf OR "John Doe" filetype:xls`,
		query)

	// A single category has no AND joiner.
	query, err = BuildCombined("John Doe", []string{"logs"})
	require.NoError(t, err)
	require.NotContains(t, query, " AND ")
}

func TestBuildCombinedRejectsBadInput(t *testing.T) {
	_, err := BuildCombined("John Doe", nil)
	require.Error(t, err)

	_, err = BuildCombined("John Doe", []string{"social", "darkweb"})
	require.Error(t, err)
}
