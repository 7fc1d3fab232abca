package texture

import (
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tga": true, ".sph": true, ".spa": true,
}

// Index maps texture paths under a model directory to filesystem paths.
// Lookups ignore case and separator style, since PMX files written on
// Windows rarely match the on-disk case.
type Index struct {
	paths map[string]string // lowercase slash path relative to root → full path
	stems map[string]string // lowercase base name → full path, first found
}

// BuildIndex scans root and its subdirectories for image files.
func BuildIndex(root string) *Index {
	idx := &Index{paths: make(map[string]string), stems: make(map[string]string)}
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		idx.paths[key(rel)] = path
		base := strings.ToLower(filepath.Base(path))
		if _, exists := idx.stems[base]; !exists {
			idx.stems[base] = path
		}
		return nil
	})
	return idx
}

func key(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}

// ResolvePath returns the filesystem path for a texture name as stored in
// the model, falling back to a match on the file name alone.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if texName == "" {
		return "", false
	}
	if path, ok := idx.paths[key(texName)]; ok {
		return path, true
	}
	base := texName[strings.LastIndexAny(texName, `/\`)+1:]
	path, ok := idx.stems[strings.ToLower(base)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.paths)
}
