package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func runTool(t *testing.T, tl *Tool, args map[string]any) Result {
	t.Helper()
	return NewRegistry().Add(tl).Execute(context.Background(), tl.Name, "", args)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"notes.txt": "hello"})
	read := ReadFile(WithBaseDir(dir))

	t.Run("reads relative to base dir", func(t *testing.T) {
		res := runTool(t, read, map[string]any{"path": "notes.txt"})
		require.NoError(t, res.Err)
		assert.Equal(t, "hello", res.Value)
	})

	t.Run("missing file", func(t *testing.T) {
		res := runTool(t, read, map[string]any{"path": "nope.txt"})
		assert.Contains(t, res.ErrorMessage(), "file not found")
	})

	t.Run("directory is not a file", func(t *testing.T) {
		res := runTool(t, read, map[string]any{"path": dir})
		assert.Contains(t, res.ErrorMessage(), "not a file")
	})

	t.Run("truncates large files", func(t *testing.T) {
		writeTree(t, dir, map[string]string{"big.txt": strings.Repeat("x", maxReadChars+10)})
		res := runTool(t, read, map[string]any{"path": "big.txt"})
		require.NoError(t, res.Err)
		text := res.Value.(string)
		assert.True(t, strings.HasSuffix(text, "... (truncated, 50010 total chars)"))
	})
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	write := WriteFile(WithBaseDir(dir))
	assert.True(t, write.RequiresConfirmation)

	res := runTool(t, write, map[string]any{"path": "sub/out.txt", "content": "héllo"})
	require.NoError(t, res.Err)
	assert.Equal(t, "Wrote 5 chars to "+filepath.Join(dir, "sub", "out.txt"), res.Value)

	data, err := os.ReadFile(filepath.Join(dir, "sub", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(data))
}

func TestSendFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"report.pdf": "%PDF"})
	send := SendFile(WithBaseDir(dir))

	res := runTool(t, send, map[string]any{"path": "report.pdf"})
	require.NoError(t, res.Err)
	assert.Equal(t, "File scheduled for sending: "+filepath.Join(dir, "report.pdf"), res.Value)

	res = runTool(t, send, map[string]any{"path": "missing.pdf"})
	assert.Contains(t, res.ErrorMessage(), "file not found")
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"b.txt":      "12345",
		"A.md":       "",
		"zdir/x.txt": "",
		"Adir/y.txt": "",
		"big.bin":    strings.Repeat("0", 1234),
	})

	res := runTool(t, ListDirectory(WithBaseDir(dir)), map[string]any{})
	require.NoError(t, res.Err)
	assert.Equal(t, strings.Join([]string{
		"📁 Adir",
		"📁 zdir",
		"📄 A.md (0 bytes)",
		"📄 b.txt (5 bytes)",
		"📄 big.bin (1,234 bytes)",
	}, "\n"), res.Value)
}

func TestSearchFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":          "",
		"pkg/util.go":      "",
		"pkg/util_test.go": "",
		"README.md":        "",
	})
	search := SearchFiles(WithBaseDir(dir))

	t.Run("bare pattern matches at any depth", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"pattern": "*.go"})
		require.NoError(t, res.Err)
		lines := strings.Split(res.Value.(string), "\n")
		assert.ElementsMatch(t, []string{"main.go", "pkg/util.go", "pkg/util_test.go"}, lines)
	})

	t.Run("pattern with directory", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"pattern": "pkg/*_test.go"})
		require.NoError(t, res.Err)
		assert.Equal(t, "pkg/util_test.go", res.Value)
	})

	t.Run("no matches", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"pattern": "*.rs"})
		require.NoError(t, res.Err)
		assert.Equal(t, "No files matching '*.rs' in "+dir, res.Value)
	})
}

func TestGrep(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.py":              "import os\nprint('hi')\n",
		"b.txt":             "print nothing\n",
		".git/config":       "print\n",
		"node_modules/x.js": "print\n",
	})
	grep := Grep(WithBaseDir(dir))

	t.Run("filters by include glob", func(t *testing.T) {
		res := runTool(t, grep, map[string]any{"pattern": "print", "path": ".", "include": "*.py"})
		require.NoError(t, res.Err)
		assert.Equal(t, filepath.Join(dir, "a.py")+":2:print('hi')", res.Value)
	})

	t.Run("skips vcs and dependency dirs", func(t *testing.T) {
		res := runTool(t, grep, map[string]any{"pattern": "print", "path": "."})
		require.NoError(t, res.Err)
		text := res.Value.(string)
		assert.NotContains(t, text, ".git")
		assert.NotContains(t, text, "node_modules")
		assert.Contains(t, text, "b.txt:1:print nothing")
	})

	t.Run("invalid regex falls back to literal", func(t *testing.T) {
		res := runTool(t, grep, map[string]any{"pattern": "print(", "path": "."})
		require.NoError(t, res.Err)
		assert.Contains(t, res.Value, "a.py:2:print('hi')")
	})

	t.Run("no matches", func(t *testing.T) {
		res := runTool(t, grep, map[string]any{"pattern": "absent", "path": "."})
		require.NoError(t, res.Err)
		assert.Equal(t, "No matches for 'absent' in .", res.Value)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ExpandPath("~/x", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), p)

	p, err = ExpandPath("y", "/base")
	require.NoError(t, err)
	assert.Equal(t, "/base/y", p)
}
