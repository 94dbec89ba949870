package local

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// nameRE constrains entity and quantity names so that every name can
// appear as one path segment.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// buildIndex converts a decoded schema document into a fully linked index.
// Either every record parses and every cross reference resolves, or an
// error is returned and no index exists at all.
func buildIndex(storagePath string, schema *rawSchema) (*Index, error) {
	idx := newIndex()

	for _, raw := range schema.FormatSpecifications {
		spec, err := parseFormatSpec(raw)
		if err != nil {
			return nil, err
		}
		idx.FormatSpecs[spec.UUID] = spec
	}

	if err := walkEntityTree(idx.Entities, schema.Entities, "", uuid.Nil); err != nil {
		return nil, err
	}

	for _, raw := range schema.Quantities {
		q, err := parseQuantity(raw)
		if err != nil {
			return nil, err
		}
		idx.Quantities[q.UUID] = q
	}

	for _, raw := range schema.DataFiles {
		df, err := parseDataFile(storagePath, raw)
		if err != nil {
			return nil, err
		}
		idx.DataFiles[df.UUID] = df
	}

	for _, raw := range schema.Releases {
		rel, err := parseRelease(raw)
		if err != nil {
			return nil, err
		}
		idx.Releases[rel.Tag] = rel
	}

	if err := idx.link(); err != nil {
		return nil, err
	}
	return idx, nil
}

// walkEntityTree performs the depth-first walk over the entity forest.
// This is the only place full paths are computed: it needs the complete
// tree in hand, which is exactly what a flat-file catalog provides.
func walkEntityTree(dst map[uuid.UUID]*insdb.Entity, objs []rawEntity, basePath string, parent uuid.UUID) error {
	for _, raw := range objs {
		id, err := uuid.Parse(raw.UUID)
		if err != nil {
			return fmt.Errorf("entity %q: invalid uuid %q", raw.Name, raw.UUID)
		}
		if !nameRE.MatchString(raw.Name) {
			return fmt.Errorf("entity %s: invalid name %q", id, raw.Name)
		}

		entity := &insdb.Entity{
			UUID:       id,
			Name:       raw.Name,
			FullPath:   basePath + "/" + raw.Name,
			Parent:     parent,
			Quantities: insdb.NewUUIDSet(),
		}
		dst[id] = entity

		if len(raw.Children) > 0 {
			if err := walkEntityTree(dst, raw.Children, entity.FullPath, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseFormatSpec(raw rawFormatSpec) (*insdb.FormatSpecification, error) {
	id, err := uuid.Parse(raw.UUID)
	if err != nil {
		return nil, fmt.Errorf("format specification %q: invalid uuid %q", raw.DocumentRef, raw.UUID)
	}

	return &insdb.FormatSpecification{
		UUID:         id,
		DocumentRef:  raw.DocumentRef,
		Title:        raw.Title,
		LocalDocPath: raw.DocFileName,
		DocMIMEType:  raw.DocMIMEType,
		FileMIMEType: raw.FileMIMEType,
	}, nil
}

func parseQuantity(raw rawQuantity) (*insdb.Quantity, error) {
	id, err := uuid.Parse(raw.UUID)
	if err != nil {
		return nil, fmt.Errorf("quantity %q: invalid uuid %q", raw.Name, raw.UUID)
	}
	if !nameRE.MatchString(raw.Name) {
		return nil, fmt.Errorf("quantity %s: invalid name %q", id, raw.Name)
	}

	entity, err := uuid.Parse(raw.Entity)
	if err != nil {
		return nil, fmt.Errorf("quantity %q: invalid entity uuid %q", raw.Name, raw.Entity)
	}

	formatSpec := uuid.Nil
	if raw.FormatSpec != "" {
		formatSpec, err = uuid.Parse(raw.FormatSpec)
		if err != nil {
			return nil, fmt.Errorf("quantity %q: invalid format_spec uuid %q", raw.Name, raw.FormatSpec)
		}
	}

	return &insdb.Quantity{
		UUID:       id,
		Name:       raw.Name,
		FormatSpec: formatSpec,
		Entity:     entity,
		DataFiles:  insdb.NewUUIDSet(),
	}, nil
}

func parseDataFile(storagePath string, raw rawDataFile) (*insdb.DataFile, error) {
	id, err := uuid.Parse(raw.UUID)
	if err != nil {
		return nil, fmt.Errorf("data file %q: invalid uuid %q", raw.Name, raw.UUID)
	}

	quantity, err := uuid.Parse(raw.Quantity)
	if err != nil {
		return nil, fmt.Errorf("data file %q: invalid quantity uuid %q", raw.Name, raw.Quantity)
	}

	uploadDate, err := insdb.ParseTimestamp(raw.UploadDate)
	if err != nil {
		return nil, fmt.Errorf("data file %q: invalid upload_date: %w", raw.Name, err)
	}

	dependencies := insdb.NewUUIDSet()
	for _, dep := range raw.Dependencies {
		depID, err := uuid.Parse(dep)
		if err != nil {
			return nil, fmt.Errorf("data file %q: invalid dependency uuid %q", raw.Name, dep)
		}
		dependencies.Add(depID)
	}

	localPath := ""
	if raw.FileName != "" {
		localPath = filepath.Join(storagePath, raw.FileName)
	}

	return &insdb.DataFile{
		UUID:         id,
		Name:         raw.Name,
		UploadDate:   uploadDate,
		Metadata:     raw.Metadata,
		LocalPath:    localPath,
		Quantity:     quantity,
		SpecVersion:  raw.SpecVersion,
		Dependencies: dependencies,
		PlotFilePath: raw.PlotFile,
		PlotMIMEType: raw.PlotMIMEType,
		Comment:      raw.Comment,
		ReleaseTags:  insdb.NewTagSet(),
	}, nil
}

func parseRelease(raw rawRelease) (*insdb.Release, error) {
	if raw.Tag == "" {
		return nil, fmt.Errorf("release without a tag")
	}

	relDate, err := insdb.ParseTimestamp(raw.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("release %q: invalid release_date: %w", raw.Tag, err)
	}

	dataFiles := insdb.NewUUIDSet()
	for _, df := range raw.DataFiles {
		id, err := uuid.Parse(df)
		if err != nil {
			return nil, fmt.Errorf("release %q: invalid data file uuid %q", raw.Tag, df)
		}
		dataFiles.Add(id)
	}

	return &insdb.Release{
		Tag:       raw.Tag,
		RelDate:   relDate,
		Comment:   raw.Comments,
		DataFiles: dataFiles,
	}, nil
}
