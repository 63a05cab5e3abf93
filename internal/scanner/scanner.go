// Package scanner discovers indexable source files under a root
// directory, skipping hidden entries, well-known build output
// directories, and user-provided exclude patterns.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Aman-CERP/codegraph/internal/model"
)

// DefaultMaxFileSize skips files larger than 2MB; generated bundles and
// lockfiles above that size drown the index.
const DefaultMaxFileSize = 2 << 20

// ignoredDirs are never descended into.
var ignoredDirs = map[string]struct{}{
	"node_modules": {},
	"target":       {},
	"dist":         {},
	"build":        {},
	"__pycache__":  {},
	".git":         {},
	"vendor":       {},
	".venv":        {},
	"venv":         {},
	".terraform":   {},
}

// codeExtensions is the recognized code set.
var codeExtensions = map[string]struct{}{
	"rs": {}, "py": {}, "pyi": {}, "ts": {}, "tsx": {}, "js": {}, "jsx": {},
	"mjs": {}, "go": {}, "java": {}, "c": {}, "cpp": {}, "h": {}, "hpp": {},
	"tf": {}, "tfvars": {}, "hcl": {},
}

// File is one discovered source file.
type File struct {
	AbsPath  string
	RelPath  string // slash-separated, relative to the root
	Language model.Language
	Size     int64
}

// Options configures a scan.
type Options struct {
	// RootDir is the directory to walk.
	RootDir string
	// Exclude holds glob patterns matched against the relative path.
	Exclude []string
	// MaxFileSize skips larger files; 0 selects the default.
	MaxFileSize int64
}

// Scanner walks a directory tree for indexable files.
type Scanner struct {
	opts     Options
	excludes []glob.Glob
}

// New creates a scanner, compiling the exclude patterns. Invalid
// patterns are rejected up front.
func New(opts Options) (*Scanner, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	s := &Scanner{opts: opts}
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		s.excludes = append(s.excludes, g)
	}
	return s, nil
}

// Scan walks the root and returns discovered files in walk order.
// Cancellation is honored between directory entries.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	absRoot, err := filepath.Abs(s.opts.RootDir)
	if err != nil {
		return nil, err
	}

	var files []File
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if isHidden(name) {
				return filepath.SkipDir
			}
			if _, ignored := ignoredDirs[name]; ignored {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(name) {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if _, ok := codeExtensions[strings.ToLower(ext)]; !ok {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, g := range s.excludes {
			if g.Match(rel) {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.opts.MaxFileSize {
			return nil
		}

		files = append(files, File{
			AbsPath:  path,
			RelPath:  rel,
			Language: model.LanguageFromExtension(ext),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile loads a discovered file's content.
func (f *File) ReadFile() ([]byte, error) {
	return os.ReadFile(f.AbsPath)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
