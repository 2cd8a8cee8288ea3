package fsname

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Characters that are invalid in filenames on common filesystems and in SMB
// path segments. Control characters are handled separately.
const invalidChars = `<>:"/\|?*`

// Sanitize strips characters from s that cannot appear in a filesystem or SMB
// path segment: path separators, quotes, angle brackets, wildcards and all
// control characters (including NUL, CR, LF and TAB). Every other Unicode code
// point is preserved unchanged. Sanitize is idempotent and imposes no length
// limit; callers truncate where needed.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		if strings.ContainsRune(invalidChars, r) {
			return -1
		}
		return r
	}, s)
}

// Truncate shortens s to at most n runes. Multi-byte characters are never
// split in the middle.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ResolveCollision returns a path under dir for the desired file name that
// does not exist yet. If dir/name is free it is returned as-is; otherwise a
// numeric suffix is inserted before the extension (name_1.ext, name_2.ext, ...)
// until a free path is found. Termination is bounded by the entries actually
// present in dir.
func ResolveCollision(dir, name string) string {
	path := filepath.Join(dir, name)
	if free(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if free(path) {
			return path
		}
	}
}

// free reports whether nothing occupies the path. Only a definite not-exist
// answer frees the name: an entry whose stat fails for another reason (or a
// dangling symlink) still exists and must not be clobbered.
func free(path string) bool {
	_, err := os.Lstat(path)
	return errors.Is(err, fs.ErrNotExist)
}
