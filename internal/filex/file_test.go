package filex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	got, err := EnsureDir(dir)
	require.NoError(t, err)

	info, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	// idempotent
	again, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestMimeTypeOf(t *testing.T) {
	require.True(t, strings.HasPrefix(MimeTypeOf("report.pdf"), "application/pdf"))
	require.Equal(t, "application/octet-stream", MimeTypeOf("blob.xyzunknown"))
	require.Equal(t, "application/octet-stream", MimeTypeOf("noextension"))
}
