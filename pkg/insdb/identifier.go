package insdb

import (
	"strings"

	"github.com/google/uuid"
)

// IdentifierKind classifies a caller-supplied identifier.
type IdentifierKind int

const (
	// IdentifierDataFile matches a bare UUID or a "/data_files/<uuid>"
	// string. A bare UUID is always interpreted as a data file lookup.
	IdentifierDataFile IdentifierKind = iota
	IdentifierQuantity
	IdentifierEntity
	IdentifierFormatSpec

	// IdentifierReleasePath matches "/release_tag/entity/.../quantity"
	// paths, with or without a leading "/releases" prefix.
	IdentifierReleasePath
)

// String returns the string representation of the identifier kind.
func (k IdentifierKind) String() string {
	switch k {
	case IdentifierDataFile:
		return "data file"
	case IdentifierQuantity:
		return "quantity"
	case IdentifierEntity:
		return "entity"
	case IdentifierFormatSpec:
		return "format specification"
	case IdentifierReleasePath:
		return "release path"
	default:
		return "unknown"
	}
}

// Identifier is a caller-supplied object reference, classified exactly once
// at the entry point. Query dispatches on Kind instead of re-sniffing the
// raw string at every layer.
type Identifier struct {
	Kind IdentifierKind

	// UUID is set for the four UUID-shaped kinds.
	UUID uuid.UUID

	// Path is set for IdentifierReleasePath.
	Path ReleasePath
}

// ReleasePath addresses one data file through a release tag, the full path
// of the entity owning the quantity, and the quantity name.
type ReleasePath struct {
	Release    string
	EntityPath string
	Quantity   string
}

// String renders the path back to its canonical form, without the
// "/releases" prefix.
func (p ReleasePath) String() string {
	return "/" + p.Release + p.EntityPath + "/" + p.Quantity
}

// typedPrefixes maps URL-style prefixes to the object kind they select.
// Order matters: it is the dispatch order of Query.
var typedPrefixes = []struct {
	prefix string
	kind   IdentifierKind
}{
	{"/data_files", IdentifierDataFile},
	{"/quantities", IdentifierQuantity},
	{"/entities", IdentifierEntity},
	{"/format_specs", IdentifierFormatSpec},
}

// ParseIdentifier classifies identifier into one of the accepted forms:
//
//  1. "/data_files/<uuid>", "/quantities/<uuid>", "/entities/<uuid>" or
//     "/format_specs/<uuid>": a typed UUID lookup.
//  2. A bare UUID string: a data file lookup.
//  3. "/releases/<tag>/<entity>/.../<quantity>" or, equivalently,
//     "/<tag>/<entity>/.../<quantity>": a release-scoped data file path.
//
// Classification happens before any index or network access; a string that
// fits none of the forms yields a MalformedIdentifierError.
func ParseIdentifier(identifier string) (Identifier, error) {
	for _, p := range typedPrefixes {
		if strings.HasPrefix(identifier, p.prefix) {
			id, err := uuidFromPath(identifier)
			if err != nil {
				return Identifier{}, &MalformedIdentifierError{
					Identifier: identifier,
					Reason:     "the last path segment is not a valid UUID",
				}
			}
			return Identifier{Kind: p.kind, UUID: id}, nil
		}
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return Identifier{Kind: IdentifierDataFile, UUID: id}, nil
	}

	path, err := ParseReleasePath(StripReleasesPrefix(identifier))
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Kind: IdentifierReleasePath, Path: path}, nil
}

// StripReleasesPrefix removes a leading "/releases" from a release-scoped
// path, so that "/releases/planck2018/LFI/bandpass" and
// "/planck2018/LFI/bandpass" address the same data file.
func StripReleasesPrefix(identifier string) string {
	if rest, ok := strings.CutPrefix(identifier, "/releases/"); ok {
		return "/" + rest
	}
	return identifier
}

// ParseReleasePath splits a release-scoped data file path into its three
// components. The path must contain at least three non-empty segments: the
// release tag, one or more entity names, and the quantity name. Fewer
// segments fail with a MalformedIdentifierError before any lookup is
// attempted.
func ParseReleasePath(path string) (ReleasePath, error) {
	parts := splitPath(path)
	if len(parts) < 3 {
		return ReleasePath{}, &MalformedIdentifierError{
			Identifier: path,
			Reason:     "a release path needs a release tag, at least one entity and a quantity name",
		}
	}

	return ReleasePath{
		Release:    parts[0],
		EntityPath: "/" + strings.Join(parts[1:len(parts)-1], "/"),
		Quantity:   parts[len(parts)-1],
	}, nil
}

// SplitQuantityPath splits an "entity_path/quantity_name" path into the
// entity's full path and the quantity name. Both backends resolve quantity
// paths through this function.
func SplitQuantityPath(path string) (entityPath, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// splitPath splits on "/" and discards empty segments, so leading and
// trailing slashes are irrelevant.
func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// uuidFromPath parses the last non-empty segment of a slash-separated
// string as a UUID.
func uuidFromPath(path string) (uuid.UUID, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return uuid.Nil, &MalformedIdentifierError{Identifier: path, Reason: "empty path"}
	}
	return uuid.Parse(parts[len(parts)-1])
}
