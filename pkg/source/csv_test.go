package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Run("standard columns", func(t *testing.T) {
		data := `id,text,rating,date,author
s1,Very happy with the product,5,2025-06-01,alice
s2,Crashes constantly,1,2025-06-02,bob
`
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 2)

		row, ok := items[0].(CSVRow)
		require.True(t, ok)
		assert.Equal(t, "s1", row.ID)
		assert.Equal(t, "Very happy with the product", row.Text)
		assert.Equal(t, "5", row.Rating)
		assert.Equal(t, "2025-06-01", row.Date)
		assert.Equal(t, "alice", row.Author)
	})

	t.Run("column aliases", func(t *testing.T) {
		data := `feedback,score,name
Love the new dashboard,4,carol
`
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 1)

		row := items[0].(CSVRow)
		assert.Equal(t, "Love the new dashboard", row.Text)
		assert.Equal(t, "4", row.Rating)
		assert.Equal(t, "carol", row.Author)
	})

	t.Run("missing id gets generated", func(t *testing.T) {
		data := "text\nsome feedback\n"
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, strings.HasPrefix(items[0].(CSVRow).ID, "csv_"))
	})

	t.Run("no text column is an error", func(t *testing.T) {
		data := "rating,author\n5,dave\n"
		_, err := ReadCSV(strings.NewReader(data))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no text column")
	})

	t.Run("missing date column leaves date empty", func(t *testing.T) {
		data := "text,rating\nno date here,3\n"
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].(CSVRow).Date)
	})

	t.Run("ragged rows tolerated", func(t *testing.T) {
		data := "text,rating,author\nshort row\nfull row,4,eve\n"
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "short row", items[0].(CSVRow).Text)
		assert.Empty(t, items[0].(CSVRow).Rating)
	})

	t.Run("bom on first header", func(t *testing.T) {
		data := "\uFEFFtext,rating\nbom handled,2\n"
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "bom handled", items[0].(CSVRow).Text)
	})

	t.Run("header case insensitive", func(t *testing.T) {
		data := "Text,Rating\nupper case header,4\n"
		items, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "upper case header", items[0].(CSVRow).Text)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.Error(t, err)
	})
}
