package store

import "strings"

// Paths address collections (odd segment count) and documents (even segment
// count): posts, posts/{id}, posts/{id}/comments, ...

// Join concatenates path segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split breaks a path into its segments.
func Split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// IsDocPath reports whether path addresses a single document.
func IsDocPath(path string) bool {
	return len(Split(path))%2 == 0
}

// Parent returns the collection path a document path belongs to.
func Parent(docPath string) string {
	segs := Split(docPath)
	if len(segs) < 2 {
		return ""
	}
	return Join(segs[:len(segs)-1]...)
}

// DocID returns the final segment of a document path.
func DocID(docPath string) string {
	segs := Split(docPath)
	return segs[len(segs)-1]
}
