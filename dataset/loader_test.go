package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/animerec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawHeader = "MAL_ID,Name,Score,Genres,sypnopsis\n"

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func newLoader(t *testing.T) *Loader {
	t.Helper()
	loader, err := NewLoader()
	require.NoError(t, err)
	return loader
}

func TestLoadAndProcess(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawHeader+
		`1,Cowboy Bebop,8.78,"Action, Adventure, Sci-Fi","In the year 2071,   humanity has colonized
several planets."`+"\n"+
		`5,Trigun,8.24,,"Vash the Stampede is a gunman with a $60,000,000,000 bounty."`+"\n"+
		`6,No Synopsis,7.0,Drama,`+"\n"+
		`7,,7.0,Drama,"A story with no name."`+"\n"+
		`8,Blank Synopsis,7.0,Drama,"   "`+"\n")
	out := filepath.Join(dir, "nested", "processed.csv")

	loader := newLoader(t)
	path, err := loader.LoadAndProcess(context.Background(), raw, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	items, err := loader.ReadProcessed(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "1", items[0].Id)
	assert.Equal(t, "Cowboy Bebop", items[0].Title)
	assert.Equal(t, "Action, Adventure, Sci-Fi", items[0].Genres)
	assert.Equal(t,
		"Title: Cowboy Bebop Overview: In the year 2071, humanity has colonized several planets. Genres: Action, Adventure, Sci-Fi",
		items[0].Content)

	assert.Equal(t, "Trigun", items[1].Title)
	assert.NotContains(t, items[1].Content, "Genres:")
	assert.True(t, strings.HasPrefix(items[1].Content, "Title: Trigun Overview: Vash"))
}

func TestLoadAndProcess_DoesNotMutateInput(t *testing.T) {
	dir := t.TempDir()
	contents := rawHeader + `1,Monster,8.8,Mystery,"A surgeon   saves a boy."` + "\n"
	raw := writeFile(t, dir, "raw.csv", contents)

	_, err := newLoader(t).LoadAndProcess(context.Background(), raw, filepath.Join(dir, "out.csv"))
	require.NoError(t, err)

	after, err := os.ReadFile(raw)
	require.NoError(t, err)
	assert.Equal(t, contents, string(after))
}

func TestLoadAndProcess_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawHeader)
	out := filepath.Join(dir, "processed.csv")

	loader := newLoader(t)
	_, err := loader.LoadAndProcess(context.Background(), raw, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,title,genres,synopsis,content", strings.TrimSpace(string(data)))

	items, err := loader.ReadProcessed(context.Background(), out)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadAndProcess_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := newLoader(t).LoadAndProcess(context.Background(),
		filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.KindIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAndProcess_MissingColumn(t *testing.T) {
	testCases := []struct {
		name    string
		header  string
		missing string
	}{
		{"no synopsis", "MAL_ID,Name,Genres\n", ColumnSynopsis},
		{"no title", "MAL_ID,Genres,sypnopsis\n", ColumnTitle},
		{"empty file", "", ColumnTitle},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			raw := writeFile(t, dir, "raw.csv", tc.header)

			_, err := newLoader(t).LoadAndProcess(context.Background(), raw, filepath.Join(dir, "out.csv"))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.KindData)
			assert.ErrorIs(t, err, ErrMissingColumn)
			assert.Contains(t, err.Error(), tc.missing)
		})
	}
}

func TestLoadAndProcess_MalformedCSV(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawHeader+"1,Naruto,7.9\n")

	_, err := newLoader(t).LoadAndProcess(context.Background(), raw, filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.KindData)
	assert.ErrorIs(t, err, ErrMalformedCSV)
}

func TestLoadAndProcess_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawHeader)
	blocker := writeFile(t, dir, "blocker", "")

	_, err := newLoader(t).LoadAndProcess(context.Background(), raw, filepath.Join(blocker, "out.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.KindIO)
}

func TestProcess_MissingIDFallsBackToContentHash(t *testing.T) {
	input := "Name,sypnopsis\nFLCL,\"A boy, a guitar, and a robot.\"\n"

	items, err := newLoader(t).Process(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, core.IDFromContent(items[0].Content).String(), items[0].Id)
	assert.Equal(t, "Title: FLCL Overview: A boy, a guitar, and a robot.", items[0].Content)
}

func TestProcess_ByteOrderMark(t *testing.T) {
	input := "\ufeffName,sypnopsis\nAkira,Neo-Tokyo burns.\n"

	items, err := newLoader(t).Process(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Akira", items[0].Title)
}

func TestReadProcessed_Errors(t *testing.T) {
	dir := t.TempDir()
	loader := newLoader(t)

	_, err := loader.ReadProcessed(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, core.KindIO)

	empty := writeFile(t, dir, "empty.csv", "")
	_, err = loader.ReadProcessed(context.Background(), empty)
	assert.ErrorIs(t, err, core.KindData)

	blank := writeFile(t, dir, "blank.csv", "id,title,genres,synopsis,content\n1,Title,,,\n")
	_, err = loader.ReadProcessed(context.Background(), blank)
	assert.ErrorIs(t, err, core.KindData)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", normalize("  a \t b\n\nc  "))
	assert.Equal(t, "", normalize(" \n\t "))
}
