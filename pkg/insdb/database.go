package insdb

import (
	"context"
	"io"
	"sort"

	"github.com/google/uuid"
)

// Database is the access contract shared by the local and remote backends.
// Implementations resolve heterogeneous identifiers (UUID strings and
// hierarchical paths) to exactly one record, or fail deterministically:
// ambiguity or absence is always a hard failure, never a closest match.
//
// The track flag controls whether a successful resolution is recorded in
// the backend's Tracker. Returned records are shared read-only views;
// callers must not mutate them.
type Database interface {
	// QueryEntity resolves an entity from a UUID string or from its full
	// path (e.g. "/LFI/frequency_030_ghz/27M").
	QueryEntity(ctx context.Context, identifier string, track bool) (*Entity, error)

	// QueryQuantity resolves a quantity from a UUID string or from an
	// "entity_path/quantity_name" path.
	QueryQuantity(ctx context.Context, identifier string, track bool) (*Quantity, error)

	// QueryFormatSpec resolves a format specification from its UUID.
	QueryFormatSpec(ctx context.Context, id uuid.UUID, track bool) (*FormatSpecification, error)

	// QueryDataFile resolves a data file from a UUID string or from a
	// release-scoped path ("/release_tag/entity/.../quantity", with an
	// optional "/releases" prefix).
	QueryDataFile(ctx context.Context, identifier string, track bool) (*DataFile, error)

	// QueryRelease resolves a release from its tag.
	QueryRelease(ctx context.Context, tag string) (*Release, error)

	// OpenDataFile returns a readable byte stream positioned at offset 0
	// with the content of df. Opening a record that carries no content is
	// a precondition violation (ErrNoLocalFile or ErrNoDownloadURL).
	OpenDataFile(ctx context.Context, df *DataFile) (io.ReadCloser, error)

	// Tracker returns the backend's query tracker.
	Tracker() *Tracker
}

// Query resolves any accepted identifier form against db. The dispatch
// order is:
//
//  1. "/data_files/...", "/quantities/...", "/entities/...",
//     "/format_specs/...": strip the prefix, parse the last segment as a
//     UUID, perform the matching typed lookup.
//  2. A string starting with "/releases/": strip that prefix and fall
//     through to rule 3.
//  3. Anything else: a release-scoped data file path, or a bare UUID
//     string (interpreted as a data file).
func Query(ctx context.Context, db Database, identifier string, track bool) (Object, error) {
	id, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	switch id.Kind {
	case IdentifierDataFile:
		return db.QueryDataFile(ctx, id.UUID.String(), track)
	case IdentifierQuantity:
		return db.QueryQuantity(ctx, id.UUID.String(), track)
	case IdentifierEntity:
		return db.QueryEntity(ctx, id.UUID.String(), track)
	case IdentifierFormatSpec:
		return db.QueryFormatSpec(ctx, id.UUID, track)
	default:
		return db.QueryDataFile(ctx, id.Path.String(), track)
	}
}

// QueryUUID resolves a bare UUID, which always addresses a data file.
func QueryUUID(ctx context.Context, db Database, id uuid.UUID, track bool) (*DataFile, error) {
	return db.QueryDataFile(ctx, id.String(), track)
}

// DataFilesSorted returns all data files of a quantity, oldest first.
// Files sharing an upload date keep their ascending UUID order. This is
// typically used to check which versions exist rather than to read them,
// so callers usually pass track=false.
func DataFilesSorted(ctx context.Context, db Database, quantity uuid.UUID, track bool) ([]*DataFile, error) {
	q, err := db.QueryQuantity(ctx, quantity.String(), track)
	if err != nil {
		return nil, err
	}

	files := make([]*DataFile, 0, len(q.DataFiles))
	for _, id := range q.DataFiles.Sorted() {
		df, err := db.QueryDataFile(ctx, id.String(), track)
		if err != nil {
			return nil, err
		}
		files = append(files, df)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].UploadDate.Before(files[j].UploadDate)
	})
	return files, nil
}
