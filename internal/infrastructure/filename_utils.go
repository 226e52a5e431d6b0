package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/yourusername/filetube-go/internal/domain"
)

const (
	maxFilenameBytes = 200
	fallbackFilename = "video"
	partSuffix       = ".part"
)

// SanitizeFilename turns a media title into a name that is safe on every
// common filesystem. Reserved characters become '-' and control characters
// are dropped. The result never ends in a dot or space.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, c := range title {
		switch {
		case unicode.IsSpace(c):
			b.WriteRune(' ')
		case c < 0x20 || c == 0x7f:
			continue
		case isFilenameSpecialChar(c):
			b.WriteRune('-')
		default:
			b.WriteRune(c)
		}
	}

	name := strings.Join(strings.Fields(b.String()), " ")
	name = truncateUTF8(name, maxFilenameBytes)
	name = strings.TrimRight(name, ". ")
	name = strings.TrimLeft(name, " ")
	if name == "" {
		return fallbackFilename
	}
	return name
}

// isFilenameSpecialChar returns true if the character is reserved in file names
func isFilenameSpecialChar(c rune) bool {
	switch c {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	default:
		return false
	}
}

func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	s = s[:maxBytes]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// ExtensionForMime maps a stream MIME type to a file extension
func ExtensionForMime(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch base {
	case "video/webm", "audio/webm":
		return "webm"
	case "video/3gpp":
		return "3gp"
	case "audio/mp4":
		return "m4a"
	default:
		return "mp4"
	}
}

// PathAllocator hands out destination paths inside an output folder. A path
// stays reserved until released, so concurrent downloads of equal titles
// never share a file.
type PathAllocator struct {
	mu        sync.Mutex
	collision string
	reserved  map[string]struct{}
}

// NewPathAllocator creates an allocator using the given collision policy
func NewPathAllocator(collision string) *PathAllocator {
	if collision == "" {
		collision = domain.CollisionRename
	}
	return &PathAllocator{
		collision: collision,
		reserved:  make(map[string]struct{}),
	}
}

// Reserve returns the destination path for title. Existing files get a
// " (n)" suffix under the rename policy.
func (a *PathAllocator) Reserve(dir, title, ext string) (string, error) {
	if ext == "" {
		ext = "mp4"
	}
	base := SanitizeFilename(title)

	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n < 10000; n++ {
		name := base + "." + ext
		if n > 0 {
			name = fmt.Sprintf("%s (%d).%s", base, n, ext)
		}
		candidate := filepath.Join(dir, name)

		if _, taken := a.reserved[candidate]; taken {
			continue
		}
		if a.collision != domain.CollisionOverwrite && (exists(candidate) || exists(candidate+partSuffix)) {
			continue
		}

		a.reserved[candidate] = struct{}{}
		return candidate, nil
	}

	return "", fmt.Errorf("%w: no free file name for %q in %s", domain.ErrIO, base, dir)
}

// Release frees a reserved path
func (a *PathAllocator) Release(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.reserved, path)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
