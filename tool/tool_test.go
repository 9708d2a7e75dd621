package tool

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/document"
	"github.com/tsawler/pdfobj/internal/base"
)

// writeSample saves a document with a catalog (1), a page tree (2) and a
// compressed content stream (3).
func writeSample(t *testing.T) string {
	t.Helper()
	doc := document.New()
	catalog, err := doc.NewDictionary()
	require.NoError(t, err)
	require.NoError(t, doc.SetRoot(catalog))
	pages, err := doc.NewDictionary()
	require.NoError(t, err)
	content, err := doc.NewStream(nil)
	require.NoError(t, err)
	require.NoError(t, content.SetStreamData([]byte("BT ET"), true))

	cd, err := catalog.AsDictionary()
	require.NoError(t, err)
	require.NoError(t, cd.Set("Type", core.Name("Catalog")))
	require.NoError(t, cd.SetHandle("Pages", pages))
	pd, err := pages.AsDictionary()
	require.NoError(t, err)
	require.NoError(t, pd.Set("Type", core.Name("Pages")))
	require.NoError(t, pd.Set("Count", core.Int(0)))
	require.NoError(t, pd.SetHandle("Contents", content))

	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, doc.SaveFile(path).Wait())
	require.NoError(t, doc.Close())
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c := &cobra.Command{SilenceUsage: true, SilenceErrors: true}
	c.AddCommand(New(Logger(base.NoopLogger{})).Commands...)
	c.SetArgs(args)
	c.SetOut(&buf)
	c.SetErr(&buf)
	err := c.Execute()
	return buf.String(), err
}

func TestList(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "list", path)
	require.NoError(t, err)
	for _, want := range []string{"OBJECT", "Dict", "Stream", "/Type /Catalog /Pages 2 0 R", "bytes)"} {
		require.Contains(t, out, want)
	}
}

func TestShow(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "show", path, "2")
	require.NoError(t, err)
	require.Equal(t, "2 0 obj\n<</Type /Pages /Count 0 /Contents 3 0 R>>\nendobj\n", out)

	out, err = run(t, "show", "--decode", path, "3")
	require.NoError(t, err)
	require.Equal(t, "BT ET", out)

	out, err = run(t, "show", "--go", path, "2")
	require.NoError(t, err)
	require.Contains(t, out, "core.Dict")

	_, err = run(t, "show", path, "9")
	require.True(t, errors.Is(err, core.ErrObjectNotFound))
	_, err = run(t, "show", path, "zero")
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "keys", path, "1")
	require.NoError(t, err)
	require.Equal(t, "/Type\t/Catalog\n/Pages\t2 0 R\n", out)

	// A stream lists the keys of its dictionary.
	out, err = run(t, "keys", path, "3")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "/Filter\t/FlateDecode\n"), out)
}

func TestSet(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "set", path, "2", "/Count", "1")
	require.NoError(t, err)
	require.Equal(t, "wrote "+path+"\n", out)

	out, err = run(t, "keys", path, "2")
	require.NoError(t, err)
	require.Contains(t, out, "/Count\t1\n")

	copyPath := filepath.Join(t.TempDir(), "copy.pdf")
	_, err = run(t, "set", "-o", copyPath, path, "1", "Lang", "(en)")
	require.NoError(t, err)
	out, err = run(t, "keys", copyPath, "1")
	require.NoError(t, err)
	require.Contains(t, out, "/Lang\t(en)\n")

	_, err = run(t, "set", path, "1", "Bad", "<<")
	require.Error(t, err)
}

func TestWalk(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "walk", path)
	require.NoError(t, err)
	require.Equal(t, "1 0 R\tDict\n2 0 R\tDict\n3 0 R\tStream\n", out)

	out, err = run(t, "walk", path, "2")
	require.NoError(t, err)
	require.Equal(t, "2 0 R\tDict\n3 0 R\tStream\n", out)
}
