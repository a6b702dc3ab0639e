// Package fieldpath maps logical field names to physical document paths and
// decides when a path lives inside nested documents.
package fieldpath

import "strings"

// Physical roots of an indexed item.
const (
	UUIDRoot            = "uuid"
	IndexedMetadataRoot = "indexed_metadata"
)

// Fields stored outside indexed_metadata.
var passthrough = map[string]struct{}{
	"_id":        {},
	"_score":     {},
	"coordinate": {},
	"suggest":    {},
}

var physicalRoots = []string{
	UUIDRoot + ".",
	IndexedMetadataRoot + ".",
	"metadata.",
	"searchable_metadata.",
	"exact_matching_metadata.",
}

// Resolve maps a logical field to its physical path: "id" and "type" live
// under uuid, already-physical paths are kept, everything else is indexed
// metadata.
func Resolve(field string) string {
	switch field {
	case "id", "type":
		return UUIDRoot + "." + field
	}
	if _, ok := passthrough[field]; ok {
		return field
	}
	for _, root := range physicalRoots {
		if strings.HasPrefix(field, root) {
			return field
		}
	}
	return IndexedMetadataRoot + "." + field
}

// NestedFilterPath returns the nested scope of a filter field. Only fields
// of exactly three segments are nested, scoped to the first two.
func NestedFilterPath(field string) (string, bool) {
	parts := strings.Split(field, ".")
	if len(parts) != 3 {
		return "", false
	}
	return parts[0] + "." + parts[1], true
}

// NestedScorePath returns the nested scope of a scoring field: any path of
// three or more segments is scoped to everything but its last segment.
func NestedScorePath(path string) (string, bool) {
	if strings.Count(path, ".") < 2 {
		return "", false
	}
	return Parent(path), true
}

// Parent drops the last segment of a path.
func Parent(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}
