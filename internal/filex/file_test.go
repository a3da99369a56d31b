package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	abs := filepath.Join(t.TempDir(), "journal")

	tests := []struct {
		name string
		base string
		dir  string
		want string
	}{
		{name: "absolute kept", base: "/ignored", dir: abs, want: abs},
		{name: "relative to base", base: "/srv", dir: "inbox", want: filepath.Join("/srv", "inbox")},
		{name: "home expanded", dir: "~/journal", want: filepath.Join(home, "journal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.base, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("", "journal-data")
	require.NoError(t, err)

	// t.TempDir may sit behind a symlink (macOS /var -> /private/var).
	want, err := filepath.EvalSymlinks(filepath.Join(tmp, "journal-data"))
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, want, gotReal)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	base := t.TempDir()

	first, err := EnsureDir(base, "inbox")
	require.NoError(t, err)
	second, err := EnsureDir(base, "inbox")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "inbox"), []byte("x"), 0o600))

	_, err := EnsureDir(base, "inbox")
	require.Error(t, err, "should fail when a file exists with the same name")
}
