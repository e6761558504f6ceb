package vsix

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"vsxdl/internal/marketplace/marketplacetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.vsix")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestInspect(t *testing.T) {
	pkg, err := marketplacetest.BuildVSIX("ms-python", "python", "2024.1.0", "Python")
	require.NoError(t, err)

	manifest, err := Inspect(writePackage(t, pkg))
	require.NoError(t, err)

	assert.Equal(t, "ms-python.python", manifest.ID())
	assert.Equal(t, "2024.1.0", manifest.Version)
	assert.Equal(t, "Python", manifest.DisplayName)
	assert.Equal(t, "Packaged by the test catalog", manifest.Description)

	assert.True(t, manifest.Matches("MS-Python", "Python", "2024.1.0"))
	assert.False(t, manifest.Matches("ms-python", "python", "2024.1.1"))
}

func TestInspect_MissingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.vsix")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("extension/readme.md")
	require.NoError(t, err)
	_, err = w.Write([]byte("# hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Inspect(path)
	assert.ErrorContains(t, err, "package.json not found")
}

func TestInspect_NotAnArchive(t *testing.T) {
	_, err := Inspect(writePackage(t, []byte("<html>rate limited</html>")))
	assert.ErrorContains(t, err, "failed to open .vsix file")
}
