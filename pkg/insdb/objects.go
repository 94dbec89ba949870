// Package insdb defines the data model and query contract for InstrumentDB
// catalogs. A catalog is a forest of entities (parts of a scientific
// instrument), each owning quantities (measurable parameters), each owning
// versioned data files, grouped into named, dated releases. The concrete
// backends live in the local (flat-file) and remote (RESTful) subpackages;
// both resolve the same identifier to value-equal records.
package insdb

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the record types stored in a catalog.
type Kind int

const (
	KindFormatSpec Kind = iota
	KindEntity
	KindQuantity
	KindDataFile
	KindRelease
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFormatSpec:
		return "format specification"
	case KindEntity:
		return "entity"
	case KindQuantity:
		return "quantity"
	case KindDataFile:
		return "data file"
	case KindRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Object is implemented by every UUID-keyed record in a catalog. It lets
// Query return one value regardless of which record type an identifier
// resolved to.
type Object interface {
	ObjectKind() Kind
	ObjectUUID() uuid.UUID
}

// UUIDSet is a set of record UUIDs.
type UUIDSet map[uuid.UUID]struct{}

// NewUUIDSet returns a set holding the given members.
func NewUUIDSet(ids ...uuid.UUID) UUIDSet {
	s := make(UUIDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id into the set.
func (s UUIDSet) Add(id uuid.UUID) {
	s[id] = struct{}{}
}

// Contains reports whether id is a member of the set.
func (s UUIDSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending UUID order. Every iteration over
// a set in this module goes through Sorted so that resolution results are
// reproducible.
func (s UUIDSet) Sorted() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Clone returns an independent copy of the set.
func (s UUIDSet) Clone() UUIDSet {
	c := make(UUIDSet, len(s))
	for id := range s {
		c.Add(id)
	}
	return c
}

// TagSet is a set of release tags.
type TagSet map[string]struct{}

// NewTagSet returns a set holding the given tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, tag := range tags {
		s.Add(tag)
	}
	return s
}

// Add inserts tag into the set.
func (s TagSet) Add(tag string) {
	s[tag] = struct{}{}
}

// Contains reports whether tag is a member of the set.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexicographic order.
func (s TagSet) Sorted() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Clone returns an independent copy of the set.
func (s TagSet) Clone() TagSet {
	c := make(TagSet, len(s))
	for tag := range s {
		c.Add(tag)
	}
	return c
}

// FormatSpecification describes the file format used to encode a quantity,
// so that the data stored in the catalog can always be interpreted.
// Records are immutable once loaded.
type FormatSpecification struct {
	UUID         uuid.UUID
	DocumentRef  string // unique free-form label of the document
	Title        string
	LocalDocPath string // local copy of the document, empty if none
	DocMIMEType  string // format of the document itself
	FileMIMEType string // format of the files the document describes
}

// ObjectKind implements Object.
func (f *FormatSpecification) ObjectKind() Kind { return KindFormatSpec }

// ObjectUUID implements Object.
func (f *FormatSpecification) ObjectUUID() uuid.UUID { return f.UUID }

// Clone returns an independent copy of the record.
func (f *FormatSpecification) Clone() *FormatSpecification {
	c := *f
	return &c
}

// Entity is a node in the instrument hierarchy: a detector, a telescope, a
// sub-assembly. Entities form a forest; the relationship fields hold plain
// UUIDs so that records never embed owning pointers.
type Entity struct {
	UUID uuid.UUID

	// Name may contain only letters, digits, underscores and hyphens.
	Name string

	// FullPath is the slash-separated path from the root down to this
	// entity, with a leading "/". It is populated only when the whole tree
	// is known up front, i.e. by the local backend; remote records leave
	// it empty because one entity is fetched at a time.
	FullPath string

	// Parent is uuid.Nil for root entities.
	Parent uuid.UUID

	// Quantities is derived during index construction from the Entity
	// field of every quantity; it is never stored in the source document.
	Quantities UUIDSet
}

// ObjectKind implements Object.
func (e *Entity) ObjectKind() Kind { return KindEntity }

// ObjectUUID implements Object.
func (e *Entity) ObjectUUID() uuid.UUID { return e.UUID }

// Clone returns an independent copy of the record.
func (e *Entity) Clone() *Entity {
	c := *e
	c.Quantities = e.Quantities.Clone()
	return &c
}

// Quantity is a named measurable parameter owned by an entity. The actual
// values live in data files, which adds one more level so that several
// versions of the same quantity can coexist.
type Quantity struct {
	UUID uuid.UUID

	// Name may contain only letters, digits, underscores and hyphens.
	// No two quantities under the same entity may share a name.
	Name string

	// FormatSpec is uuid.Nil when the quantity has no format specification.
	FormatSpec uuid.UUID

	// Entity is the owning entity. Always set.
	Entity uuid.UUID

	// DataFiles is derived during index construction from the Quantity
	// field of every data file.
	DataFiles UUIDSet
}

// ObjectKind implements Object.
func (q *Quantity) ObjectKind() Kind { return KindQuantity }

// ObjectUUID implements Object.
func (q *Quantity) ObjectUUID() uuid.UUID { return q.UUID }

// Clone returns an independent copy of the record.
func (q *Quantity) Clone() *Quantity {
	c := *q
	c.DataFiles = q.DataFiles.Clone()
	return &c
}

// DataFile is a versioned artifact belonging to a quantity. Some records
// point to an actual file, either on disk (local backend) or behind a
// download URL (remote backend); others carry all their information in
// Metadata and have neither.
type DataFile struct {
	UUID uuid.UUID
	Name string

	// UploadDate orders the data files of one quantity. Always set.
	UploadDate time.Time

	// Metadata is an arbitrary nested document, nil when absent.
	Metadata map[string]any

	// LocalPath and DownloadURL are mutually exclusive; at most one is
	// non-empty.
	LocalPath   string
	DownloadURL string

	// Quantity is the owning quantity. Always set.
	Quantity uuid.UUID

	// SpecVersion is the free-form version of the format specification
	// document this file conforms to.
	SpecVersion string

	// Dependencies holds the data files used to produce this one.
	Dependencies UUIDSet

	PlotFilePath string
	PlotMIMEType string
	Comment      string

	// ReleaseTags is derived: exactly the tags of the releases whose
	// member set contains this file.
	ReleaseTags TagSet
}

// ObjectKind implements Object.
func (d *DataFile) ObjectKind() Kind { return KindDataFile }

// ObjectUUID implements Object.
func (d *DataFile) ObjectUUID() uuid.UUID { return d.UUID }

// Clone returns an independent copy of the record. Metadata is shared, as
// records are read-only views.
func (d *DataFile) Clone() *DataFile {
	c := *d
	c.Dependencies = d.Dependencies.Clone()
	c.ReleaseTags = d.ReleaseTags.Clone()
	return &c
}

// Release is a named, dated, immutable snapshot selecting one data file per
// relevant quantity. Releases are keyed by tag, not by UUID.
type Release struct {
	Tag       string
	RelDate   time.Time
	Comment   string
	DataFiles UUIDSet
}

// Clone returns an independent copy of the record.
func (r *Release) Clone() *Release {
	c := *r
	c.DataFiles = r.DataFiles.Clone()
	return &c
}

// timestampLayouts lists the accepted encodings of upload and release
// dates, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp decodes an upload or release date from its document
// representation.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
