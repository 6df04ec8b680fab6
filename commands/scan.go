package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// albumTitleSeparator joins nested directory names into one album title.
const albumTitleSeparator = ": "

// AlbumDirectory is one scanned directory. Title is empty for the scan root;
// files there go to the library without an album. Files holds absolute paths
// of the directory's own media files, in upload order.
type AlbumDirectory struct {
	Path  string
	Title string
	Files []string
}

var fileTimestampPattern = regexp.MustCompile(`\d{4}_\d{2}_\d{2}_\d{2}_\d{2}_\d{2}`)

func skippableName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.EqualFold(name, "picasa.ini")
}

func skippableDirName(name string) bool {
	return strings.HasPrefix(name, ".") || name == "DS_Store" || name == "__MACOSX"
}

// ScanDirectory walks rootDir and returns its directories as album
// candidates, root first, in lexical path order. Hidden entries, picasa.ini
// files and well known junk directories are skipped. A directory below the
// root appears only if it transitively contains at least one usable file.
func ScanDirectory(rootDir string) ([]AlbumDirectory, error) {
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", rootDir)
	}

	byPath := map[string]*AlbumDirectory{}
	var order []string

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootDir && skippableDirName(d.Name()) {
				return filepath.SkipDir
			}
			dir := &AlbumDirectory{Path: path, Title: albumTitle(rootDir, path)}
			byPath[path] = dir
			order = append(order, path)
			return nil
		}
		if skippableName(d.Name()) {
			return nil
		}
		parent := byPath[filepath.Dir(path)]
		parent.Files = append(parent.Files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootDir, err)
	}

	var dirs []AlbumDirectory
	for _, path := range order {
		dir := byPath[path]
		if path != rootDir && !containsFiles(byPath, path) {
			continue
		}
		sortFilesByCreationTime(dir.Files)
		dirs = append(dirs, *dir)
	}
	return dirs, nil
}

func albumTitle(rootDir, path string) string {
	if path == rootDir {
		return ""
	}
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return filepath.Base(path)
	}
	return strings.Join(strings.Split(rel, string(filepath.Separator)), albumTitleSeparator)
}

func containsFiles(byPath map[string]*AlbumDirectory, path string) bool {
	for p, dir := range byPath {
		if p == path || strings.HasPrefix(p, path+string(filepath.Separator)) {
			if len(dir.Files) > 0 {
				return true
			}
		}
	}
	return false
}

// sortFilesByCreationTime orders files the way cameras name them: a
// yyyy_MM_dd_HH_mm_ss timestamp embedded in the name wins; otherwise the
// file's modification time is used. Name order breaks ties.
func sortFilesByCreationTime(files []string) {
	type keyed struct {
		path string
		when time.Time
	}
	keys := make([]keyed, len(files))
	for i, path := range files {
		keys[i] = keyed{path: path, when: fileCreationTime(path)}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].when.Equal(keys[j].when) {
			return keys[i].when.Before(keys[j].when)
		}
		return keys[i].path < keys[j].path
	})
	for i, k := range keys {
		files[i] = k.path
	}
}

func fileCreationTime(path string) time.Time {
	if match := fileTimestampPattern.FindString(filepath.Base(path)); match != "" {
		if t, err := time.Parse("2006_01_02_15_04_05", match); err == nil {
			return t
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
