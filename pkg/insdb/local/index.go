package local

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// Index holds every record of a flat-file catalog: the four UUID-keyed
// arenas, releases by tag, and the path lookup maps. The derived
// collections (Entity.Quantities, Quantity.DataFiles, DataFile.ReleaseTags)
// and the path maps are rebuilt by link after the flat records are loaded,
// never maintained incrementally.
type Index struct {
	FormatSpecs map[uuid.UUID]*insdb.FormatSpecification
	Entities    map[uuid.UUID]*insdb.Entity
	Quantities  map[uuid.UUID]*insdb.Quantity
	DataFiles   map[uuid.UUID]*insdb.DataFile
	Releases    map[string]*insdb.Release

	PathToEntity   map[string]uuid.UUID
	PathToQuantity map[string]uuid.UUID
}

func newIndex() *Index {
	return &Index{
		FormatSpecs: make(map[uuid.UUID]*insdb.FormatSpecification),
		Entities:    make(map[uuid.UUID]*insdb.Entity),
		Quantities:  make(map[uuid.UUID]*insdb.Quantity),
		DataFiles:   make(map[uuid.UUID]*insdb.DataFile),
		Releases:    make(map[string]*insdb.Release),
	}
}

// link rebuilds the derived collections and path maps from the flat
// records. A cross reference pointing to an absent UUID is a dangling
// reference, reported as a FormatError rather than surfacing later as a
// lookup failure.
func (idx *Index) link() error {
	for _, entity := range idx.Entities {
		entity.Quantities = insdb.NewUUIDSet()
	}
	for _, quantity := range idx.Quantities {
		quantity.DataFiles = insdb.NewUUIDSet()
	}
	for _, df := range idx.DataFiles {
		df.ReleaseTags = insdb.NewTagSet()
	}

	idx.PathToEntity = make(map[string]uuid.UUID, len(idx.Entities))
	for id, entity := range idx.Entities {
		if other, dup := idx.PathToEntity[entity.FullPath]; dup {
			return idx.formatErr("entities %s and %s share the path %q", other, id, entity.FullPath)
		}
		idx.PathToEntity[entity.FullPath] = id
	}

	idx.PathToQuantity = make(map[string]uuid.UUID, len(idx.Quantities))
	for id, quantity := range idx.Quantities {
		entity, ok := idx.Entities[quantity.Entity]
		if !ok {
			return idx.formatErr("dangling reference: quantity %s points to missing entity %s", id, quantity.Entity)
		}
		entity.Quantities.Add(id)

		path := entity.FullPath + "/" + quantity.Name
		if other, dup := idx.PathToQuantity[path]; dup {
			return idx.formatErr("quantities %s and %s share the path %q", other, id, path)
		}
		idx.PathToQuantity[path] = id
	}

	for id, df := range idx.DataFiles {
		quantity, ok := idx.Quantities[df.Quantity]
		if !ok {
			return idx.formatErr("dangling reference: data file %s points to missing quantity %s", id, df.Quantity)
		}
		quantity.DataFiles.Add(id)
	}

	for tag, release := range idx.Releases {
		for _, id := range release.DataFiles.Sorted() {
			df, ok := idx.DataFiles[id]
			if !ok {
				return idx.formatErr("dangling reference: release %q lists missing data file %s", tag, id)
			}
			df.ReleaseTags.Add(tag)
		}
	}

	return nil
}

func (idx *Index) formatErr(format string, args ...any) error {
	return &insdb.FormatError{Message: fmt.Sprintf(format, args...)}
}

// Merge unions other into idx. On a UUID (or release tag) collision the
// record from other wins. The union is staged in a scratch index built
// from cloned records and relinked there, then swapped in: a failed merge
// leaves both source indexes exactly as they were. Merging is not safe
// concurrently with queries on either index.
func (idx *Index) Merge(other *Index) error {
	merged := newIndex()
	for _, src := range []*Index{idx, other} {
		for id, spec := range src.FormatSpecs {
			merged.FormatSpecs[id] = spec.Clone()
		}
		for id, entity := range src.Entities {
			merged.Entities[id] = entity.Clone()
		}
		for id, quantity := range src.Quantities {
			merged.Quantities[id] = quantity.Clone()
		}
		for id, df := range src.DataFiles {
			merged.DataFiles[id] = df.Clone()
		}
		for tag, release := range src.Releases {
			merged.Releases[tag] = release.Clone()
		}
	}

	if err := merged.link(); err != nil {
		return err
	}
	*idx = *merged
	return nil
}

// RootEntities returns the entities without a parent, in name order.
func (idx *Index) RootEntities() []*insdb.Entity {
	return idx.ChildEntities(uuid.Nil)
}

// ChildEntities returns the immediate children of parent, in name order.
func (idx *Index) ChildEntities(parent uuid.UUID) []*insdb.Entity {
	var children []*insdb.Entity
	for _, entity := range idx.Entities {
		if entity.Parent == parent {
			children = append(children, entity)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})
	return children
}

// QuantitiesOf returns the quantities owned by entity, in name order.
func (idx *Index) QuantitiesOf(entity *insdb.Entity) []*insdb.Quantity {
	quantities := make([]*insdb.Quantity, 0, len(entity.Quantities))
	for _, id := range entity.Quantities.Sorted() {
		if q, ok := idx.Quantities[id]; ok {
			quantities = append(quantities, q)
		}
	}
	sort.Slice(quantities, func(i, j int) bool {
		return quantities[i].Name < quantities[j].Name
	})
	return quantities
}
