package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/chronos/pkg/chronos/types"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadFlatFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tech.yaml")
	writeFile(t, p, `
watchlist:
  - sym: AAPL
    name: Apple
    note: core holding
  - MSFT
  - 7203
`)
	lists, err := YAMLSource{}.Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "tech", lists[0].Name)
	assert.Equal(t, []string{"AAPL", "MSFT", "7203"}, lists[0].Symbols())
	assert.Equal(t, "Apple", lists[0].Items[0].Name)
	assert.Equal(t, "core holding", lists[0].Items[0].Fields["note"])
}

func TestLoadNestedGroups(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "all.yml")
	writeFile(t, p, `
watchlist:
  - sym: SPY
  - name: US
    watchlist:
      - sym: AAPL
      - name: Banks
        watchlist:
          - JPM
  - name: Japan
    watchlist:
      - sym: 7203.T
`)
	lists, err := YAMLSource{}.Load(context.Background(), p)
	require.NoError(t, err)

	names := make([]string, 0, len(lists))
	for _, l := range lists {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"all", "US", "US/Banks", "Japan"}, names)
	assert.Equal(t, []string{"7203.T"}, lists[3].Symbols())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "watchlist:\n  - sym: B1\n")
	writeFile(t, filepath.Join(dir, "a", "x.yml"), "watchlist:\n  - name: inner\n    watchlist:\n      - A1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	lists, err := YAMLSource{}.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "a/x/inner", lists[0].Name)
	assert.Equal(t, "b", lists[1].Name)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := YAMLSource{}.Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "symbols: [AAPL]\n")
	_, err = YAMLSource{}.Load(context.Background(), bad)
	assert.ErrorContains(t, err, "missing 'watchlist'")

	writeFile(t, bad, "- just\n- a list\n")
	_, err = YAMLSource{}.Load(context.Background(), bad)
	assert.ErrorContains(t, err, "expected map")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = YAMLSource{}.Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdHoc(t *testing.T) {
	l := AdHoc("args", "aapl", " msft,7203.t ", "", "AAPL")
	assert.Equal(t, "args", l.Name)
	assert.Equal(t, []string{"AAPL", "MSFT", "7203.T"}, l.Symbols())
	assert.Equal(t, types.Watchlist{Name: "empty"}, AdHoc("empty"))
}
