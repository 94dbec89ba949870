package local

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// Database gives read access to a flat-file catalog. The index is built
// once at construction time and treated as read-only afterwards, so every
// query is a map lookup plus, at worst, a scan bounded by a single record's
// fan-out. The only mutation after construction is Merge.
type Database struct {
	storagePath string
	index       *Index
	tracker     *insdb.Tracker
	logger      *zap.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithLogger installs a structured logger. The default discards all
// output.
func WithLogger(logger *zap.Logger) Option {
	return func(db *Database) {
		db.logger = logger
	}
}

// Open reads the schema document found in storagePath and builds the
// catalog index. A missing, unparsable or internally inconsistent document
// yields a FormatError and no Database at all; construction never leaves
// partial state behind.
func Open(storagePath string, opts ...Option) (*Database, error) {
	db := &Database{
		storagePath: storagePath,
		tracker:     insdb.NewTracker(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(db)
	}

	schemaPath, err := findSchemaFile(storagePath)
	if err != nil {
		return nil, err
	}

	schema, err := readSchema(schemaPath)
	if err != nil {
		return nil, &insdb.FormatError{Path: schemaPath, Err: err}
	}

	index, err := buildIndex(storagePath, schema)
	if err != nil {
		if insdb.IsFormatError(err) {
			return nil, err
		}
		return nil, &insdb.FormatError{Path: schemaPath, Err: err}
	}
	db.index = index

	db.logger.Debug("catalog loaded",
		zap.String("schema", schemaPath),
		zap.Int("entities", len(index.Entities)),
		zap.Int("quantities", len(index.Quantities)),
		zap.Int("data_files", len(index.DataFiles)),
		zap.Int("releases", len(index.Releases)),
	)
	return db, nil
}

// StoragePath returns the directory the catalog was loaded from.
func (db *Database) StoragePath() string {
	return db.storagePath
}

// Index exposes the underlying index for read-only traversal, e.g. tree
// rendering.
func (db *Database) Index() *Index {
	return db.index
}

// Tracker implements insdb.Database.
func (db *Database) Tracker() *insdb.Tracker {
	return db.tracker
}

// Merge unions the catalog of other into db. On colliding UUIDs the record
// from other wins. Used to compose multi-directory catalogs; requires
// exclusive access to both databases for the duration of the call.
func (db *Database) Merge(other *Database) error {
	return db.index.Merge(other.index)
}

// QueryEntity implements insdb.Database.
func (db *Database) QueryEntity(ctx context.Context, identifier string, track bool) (*insdb.Entity, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		entity, ok := db.index.Entities[id]
		if !ok {
			return nil, &insdb.NotFoundError{Kind: insdb.KindEntity, Identifier: identifier}
		}
		db.track(track, insdb.KindEntity, id)
		return entity, nil
	}

	id, ok := db.index.PathToEntity[identifier]
	if !ok {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindEntity,
			Identifier: identifier,
			Detail:     "no entity at this path",
		}
	}
	db.track(track, insdb.KindEntity, id)
	return db.index.Entities[id], nil
}

// QueryQuantity implements insdb.Database.
func (db *Database) QueryQuantity(ctx context.Context, identifier string, track bool) (*insdb.Quantity, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		quantity, ok := db.index.Quantities[id]
		if !ok {
			return nil, &insdb.NotFoundError{Kind: insdb.KindQuantity, Identifier: identifier}
		}
		db.track(track, insdb.KindQuantity, id)
		return quantity, nil
	}

	entityPath, name := insdb.SplitQuantityPath(identifier)
	entityID, ok := db.index.PathToEntity[entityPath]
	if !ok {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindQuantity,
			Identifier: identifier,
			Detail:     fmt.Sprintf("no entity at path %q", entityPath),
		}
	}

	quantity := db.quantityByName(db.index.Entities[entityID], name)
	if quantity == nil {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindQuantity,
			Identifier: identifier,
			Detail:     fmt.Sprintf("entity %q has no quantity named %q", entityPath, name),
		}
	}
	db.track(track, insdb.KindQuantity, quantity.UUID)
	return quantity, nil
}

// QueryFormatSpec implements insdb.Database.
func (db *Database) QueryFormatSpec(ctx context.Context, id uuid.UUID, track bool) (*insdb.FormatSpecification, error) {
	spec, ok := db.index.FormatSpecs[id]
	if !ok {
		return nil, &insdb.NotFoundError{Kind: insdb.KindFormatSpec, Identifier: id.String()}
	}
	db.track(track, insdb.KindFormatSpec, id)
	return spec, nil
}

// QueryDataFile implements insdb.Database.
func (db *Database) QueryDataFile(ctx context.Context, identifier string, track bool) (*insdb.DataFile, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		df, ok := db.index.DataFiles[id]
		if !ok {
			return nil, &insdb.NotFoundError{Kind: insdb.KindDataFile, Identifier: identifier}
		}
		db.track(track, insdb.KindDataFile, id)
		return df, nil
	}

	return db.resolveReleasePath(identifier, track)
}

// resolveReleasePath walks a "/release_tag/entity/.../quantity" path down
// to the single data file that the release selects for that quantity.
// Each step failure names the identifier and the step, which is what makes
// malformed paths debuggable.
func (db *Database) resolveReleasePath(identifier string, track bool) (*insdb.DataFile, error) {
	path, err := insdb.ParseReleasePath(insdb.StripReleasesPrefix(identifier))
	if err != nil {
		return nil, err
	}

	release, ok := db.index.Releases[path.Release]
	if !ok {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindRelease,
			Identifier: identifier,
			Detail:     fmt.Sprintf("unknown release %q", path.Release),
		}
	}

	entityID, ok := db.index.PathToEntity[path.EntityPath]
	if !ok {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindEntity,
			Identifier: identifier,
			Detail:     fmt.Sprintf("no entity at path %q", path.EntityPath),
		}
	}
	entity := db.index.Entities[entityID]

	quantity := db.quantityByName(entity, path.Quantity)
	if quantity == nil {
		return nil, &insdb.NotFoundError{
			Kind:       insdb.KindQuantity,
			Identifier: identifier,
			Detail:     fmt.Sprintf("entity %q has no quantity named %q", entity.FullPath, path.Quantity),
		}
	}

	// Ascending UUID order keeps the result deterministic if a quantity
	// ever contributes more than one file to the same release.
	for _, id := range quantity.DataFiles.Sorted() {
		if release.DataFiles.Contains(id) {
			db.track(track, insdb.KindDataFile, id)
			return db.index.DataFiles[id], nil
		}
	}

	return nil, &insdb.NotFoundError{
		Kind:       insdb.KindDataFile,
		Identifier: identifier,
		Detail:     fmt.Sprintf("quantity %q has no data file in release %q", path.Quantity, path.Release),
	}
}

// QueryRelease implements insdb.Database.
func (db *Database) QueryRelease(ctx context.Context, tag string) (*insdb.Release, error) {
	release, ok := db.index.Releases[tag]
	if !ok {
		return nil, &insdb.NotFoundError{Kind: insdb.KindRelease, Identifier: tag}
	}
	return release, nil
}

// OpenDataFile implements insdb.Database. It opens the file on disk that
// df points to; a metadata-only record has no file and fails with
// ErrNoLocalFile.
func (db *Database) OpenDataFile(ctx context.Context, df *insdb.DataFile) (io.ReadCloser, error) {
	if df.LocalPath == "" {
		return nil, fmt.Errorf("data file %s: %w", df.UUID, insdb.ErrNoLocalFile)
	}

	f, err := os.Open(df.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", df.UUID, err)
	}
	return f, nil
}

// quantityByName scans the quantities of entity for an exact name match.
func (db *Database) quantityByName(entity *insdb.Entity, name string) *insdb.Quantity {
	for _, id := range entity.Quantities.Sorted() {
		quantity := db.index.Quantities[id]
		if quantity != nil && quantity.Name == name {
			return quantity
		}
	}
	return nil
}

func (db *Database) track(track bool, kind insdb.Kind, id uuid.UUID) {
	if track {
		db.tracker.Record(kind, id)
	}
}

var _ insdb.Database = (*Database)(nil)
