package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	apperrors "evsales/internal/errors"
)

// Kind classifies an artifact by extension.
type Kind string

const (
	KindCSV      Kind = "csv"
	KindWorkbook Kind = "workbook"
	KindChart    Kind = "chart"
)

var kindsByExt = map[string]Kind{
	".csv":  KindCSV,
	".xlsx": KindWorkbook,
	".png":  KindChart,
	".html": KindChart,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath; relative directories
// are resolved against it.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindArtifacts lists the known artifact files directly under dir, sorted
// by name. Office lock files ("~$...") are skipped. A missing directory
// yields no files.
func (d *Discovery) FindArtifacts(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to read directory %s", fullPath), err).
			WithContext("path", fullPath)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		kind, ok := kindsByExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })
	return files, nil
}

// FindFilesByPattern lists the artifacts directly under dir whose name
// matches the glob pattern. Patterns naming another directory are rejected.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	if strings.ContainsAny(pattern, `/\`) {
		return nil, apperrors.NewValueError(fmt.Sprintf("pattern %q must not contain a path separator", pattern), nil)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, apperrors.NewValueError(fmt.Sprintf("invalid pattern %q", pattern), err)
	}

	all, err := d.FindArtifacts(dir)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(f FileInfo, _ int) bool {
		ok, _ := filepath.Match(pattern, f.Name)
		return ok
	}), nil
}

// FilterKind keeps the files of the given kind.
func FilterKind(files []FileInfo, kind Kind) []FileInfo {
	return lo.Filter(files, func(f FileInfo, _ int) bool { return f.Kind == kind })
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
