package validation

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evsales/internal/errors"
	"evsales/internal/shared/testutil"
)

func newValidator(t *testing.T) (*FileValidator, *testutil.BufferedSlogHandler) {
	logger, handler := testutil.NewTestLogger(t)
	return NewFileValidator(logger), handler
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name       string
		setupFunc  func(t *testing.T) string
		wantFormat string
		wantErr    bool
		notExist   bool
	}{
		{
			name: "csv file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "sales.csv")
				require.NoError(t, os.WriteFile(path, []byte("Year\n2023\n"), 0644))
				return path
			},
			wantFormat: FormatCSV,
		},
		{
			name: "xlsx file upper case extension",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "SALES.XLSX")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			wantFormat: FormatXLSX,
		},
		{
			name: "unknown extension read as csv",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "sales.txt")
				require.NoError(t, os.WriteFile(path, []byte("Year\n"), 0644))
				return path
			},
			wantFormat: FormatCSV,
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "gone.csv")
			},
			wantErr:  true,
			notExist: true,
		},
		{
			name: "empty path",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			wantErr:  true,
			notExist: true,
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: true,
		},
		{
			name: "excel lock file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "~$sales.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)
			format, err := v.ValidateInputFile(tt.setupFunc(t))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
				assert.Equal(t, tt.notExist, errors.Is(err, os.ErrNotExist))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v, _ := newValidator(t)

	dir := filepath.Join(t.TempDir(), "exports", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary write check file must be removed")

	err = v.ValidateOutputDirectory("")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	err = v.ValidateOutputDirectory(filepath.Join(file, "sub"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestFileValidator_ReadOnlyOutputDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	v, handler := newValidator(t)
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	err := v.ValidateOutputDirectory(dir)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
	assert.True(t, handler.ContainsMessage("Output directory is not writable"))
}

func TestFileValidator_CountFiles(t *testing.T) {
	v, _ := newValidator(t)
	dir := t.TempDir()
	for _, name := range []string{"tesla_us.csv", "tesla_europe.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tesla_dir.csv"), 0755))

	n, err := v.CountFiles(dir, "tesla_*.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = v.CountFiles(dir, "[")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
}
