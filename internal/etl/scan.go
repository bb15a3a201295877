package etl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/TsepisoMotloung/pgdatahub/internal/identifier"
)

// Recognized workbook extensions, matched case-insensitively.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xls":  true,
}

// IsWorkbook reports whether path has a recognized spreadsheet extension
// and is not a spreadsheet lock file.
func IsWorkbook(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	return workbookExtensions[strings.ToLower(filepath.Ext(base))]
}

// Folder is one leaf directory: its path parts relative to the data root
// and its workbook files in sorted name order.
type Folder struct {
	RelPath string   // relative path, slash-separated
	Files   []string // absolute paths, sorted by base name
}

// PathParts splits the folder's relative path into its tuple of parts.
// The data root itself yields a single-element tuple from the root's name,
// so files directly under the root still map to a table.
func (f *Folder) PathParts(dataRoot string) []string {
	if f.RelPath == "." || f.RelPath == "" {
		return []string{filepath.Base(dataRoot)}
	}
	return strings.Split(f.RelPath, "/")
}

// TableName derives the target table name from the folder's path parts:
// each part normalized, lowercased, joined by underscore.
func (f *Folder) TableName(dataRoot string) string {
	return identifier.NormalizeTable(f.PathParts(dataRoot))
}

// Scanner walks the data root for workbook files, grouping them by leaf
// folder. Hidden directories, spreadsheet lock files, and paths matching
// the configured ignore globs are skipped.
type Scanner struct {
	dataRoot string
	ignore   []glob.Glob
}

func NewScanner(dataRoot string, ignorePatterns []string) (*Scanner, error) {
	s := &Scanner{dataRoot: dataRoot}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

// Scan returns the leaf folders in sorted path order, files sorted within
// each folder. A folder qualifies as a leaf by directly containing at
// least one workbook file.
func (s *Scanner) Scan() ([]Folder, error) {
	byFolder := make(map[string][]string)

	err := filepath.Walk(s.dataRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.dataRoot, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && strings.HasPrefix(filepath.Base(path), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsWorkbook(path) || s.shouldIgnore(relPath) {
			return nil
		}

		dir := filepath.ToSlash(filepath.Dir(relPath))
		byFolder[dir] = append(byFolder[dir], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	folders := make([]Folder, 0, len(byFolder))
	for rel, files := range byFolder {
		sort.Slice(files, func(i, j int) bool {
			return filepath.Base(files[i]) < filepath.Base(files[j])
		})
		folders = append(folders, Folder{RelPath: rel, Files: files})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].RelPath < folders[j].RelPath })
	return folders, nil
}

func (s *Scanner) shouldIgnore(relPath string) bool {
	for _, g := range s.ignore {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}
