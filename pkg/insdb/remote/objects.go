package remote

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// lastURLSegment returns the final non-empty path component of rawurl.
func lastURLSegment(rawurl string) (string, error) {
	var last string
	for _, part := range strings.Split(rawurl, "/") {
		if part != "" {
			last = part
		}
	}
	if last == "" {
		return "", fmt.Errorf("empty URL %q", rawurl)
	}
	return last, nil
}

// uuidFromURL parses the UUID that terminates an API resource URL. The
// UUID is always the last path component; this holds for every cross
// reference the server emits, and also accepts a bare UUID string.
func uuidFromURL(rawurl string) (uuid.UUID, error) {
	last, err := lastURLSegment(rawurl)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(last)
}

// uuidSetFromURLs translates a list of resource URLs into a UUID set.
func uuidSetFromURLs(urls []string) (insdb.UUIDSet, error) {
	set := insdb.NewUUIDSet()
	for _, u := range urls {
		id, err := uuidFromURL(u)
		if err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, nil
}

// entityResponse mirrors the payload of the entity endpoints.
type entityResponse struct {
	UUID       string   `json:"uuid"`
	Name       string   `json:"name"`
	Parent     string   `json:"parent"`
	Quantities []string `json:"quantities"`
}

// toEntity converts the payload into a record. FullPath stays empty:
// computing it would mean walking the whole remote tree one request at a
// time.
func (r *entityResponse) toEntity() (*insdb.Entity, error) {
	id, err := uuidFromURL(r.UUID)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q", r.UUID)
	}

	parent := uuid.Nil
	if r.Parent != "" {
		parent, err = uuidFromURL(r.Parent)
		if err != nil {
			return nil, fmt.Errorf("invalid parent %q", r.Parent)
		}
	}

	quantities, err := uuidSetFromURLs(r.Quantities)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity reference: %w", err)
	}

	return &insdb.Entity{
		UUID:       id,
		Name:       r.Name,
		Parent:     parent,
		Quantities: quantities,
	}, nil
}

// quantityResponse mirrors the payload of the quantity endpoints.
type quantityResponse struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	FormatSpec   string   `json:"format_spec"`
	ParentEntity string   `json:"parent_entity"`
	DataFiles    []string `json:"data_files"`
}

func (r *quantityResponse) toQuantity() (*insdb.Quantity, error) {
	id, err := uuidFromURL(r.UUID)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q", r.UUID)
	}

	entity, err := uuidFromURL(r.ParentEntity)
	if err != nil {
		return nil, fmt.Errorf("invalid parent_entity %q", r.ParentEntity)
	}

	formatSpec := uuid.Nil
	if r.FormatSpec != "" {
		formatSpec, err = uuidFromURL(r.FormatSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid format_spec %q", r.FormatSpec)
		}
	}

	dataFiles, err := uuidSetFromURLs(r.DataFiles)
	if err != nil {
		return nil, fmt.Errorf("invalid data file reference: %w", err)
	}

	return &insdb.Quantity{
		UUID:       id,
		Name:       r.Name,
		FormatSpec: formatSpec,
		Entity:     entity,
		DataFiles:  dataFiles,
	}, nil
}

// formatSpecResponse mirrors the payload of the format spec endpoint.
type formatSpecResponse struct {
	DocumentRef  string `json:"document_ref"`
	Title        string `json:"title"`
	DocMIMEType  string `json:"doc_mime_type"`
	FileMIMEType string `json:"file_mime_type"`
}

func (r *formatSpecResponse) toFormatSpec(id uuid.UUID) (*insdb.FormatSpecification, error) {
	return &insdb.FormatSpecification{
		UUID:         id,
		DocumentRef:  r.DocumentRef,
		Title:        r.Title,
		DocMIMEType:  r.DocMIMEType,
		FileMIMEType: r.FileMIMEType,
	}, nil
}

// dataFileResponse mirrors the payload of the data file endpoints.
type dataFileResponse struct {
	UUID         string         `json:"uuid"`
	Name         string         `json:"name"`
	UploadDate   string         `json:"upload_date"`
	Metadata     map[string]any `json:"metadata"`
	Quantity     string         `json:"quantity"`
	SpecVersion  string         `json:"spec_version"`
	Dependencies []string       `json:"dependencies"`
	PlotFile     string         `json:"plot_file"`
	PlotMIMEType string         `json:"plot_mime_type"`
	Comment      string         `json:"comment"`
	ReleaseTags  []string       `json:"release_tags"`
	DownloadLink string         `json:"download_link"`
}

func (r *dataFileResponse) toDataFile() (*insdb.DataFile, error) {
	id, err := uuidFromURL(r.UUID)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q", r.UUID)
	}

	quantity, err := uuidFromURL(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", r.Quantity)
	}

	uploadDate, err := insdb.ParseTimestamp(r.UploadDate)
	if err != nil {
		return nil, fmt.Errorf("invalid upload_date: %w", err)
	}

	dependencies, err := uuidSetFromURLs(r.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("invalid dependency reference: %w", err)
	}

	// Release references keep only the final segment: the tag.
	releaseTags := insdb.NewTagSet()
	for _, u := range r.ReleaseTags {
		tag, err := lastURLSegment(u)
		if err != nil {
			return nil, fmt.Errorf("invalid release reference: %w", err)
		}
		releaseTags.Add(tag)
	}

	return &insdb.DataFile{
		UUID:         id,
		Name:         r.Name,
		UploadDate:   uploadDate,
		Metadata:     r.Metadata,
		DownloadURL:  r.DownloadLink,
		Quantity:     quantity,
		SpecVersion:  r.SpecVersion,
		Dependencies: dependencies,
		PlotMIMEType: r.PlotMIMEType,
		Comment:      r.Comment,
		ReleaseTags:  releaseTags,
	}, nil
}

// releaseResponse mirrors the payload of the release endpoint.
type releaseResponse struct {
	Tag       string   `json:"tag"`
	RelDate   string   `json:"rel_date"`
	Comment   string   `json:"comment"`
	DataFiles []string `json:"data_files"`
}

func (r *releaseResponse) toRelease() (*insdb.Release, error) {
	relDate, err := insdb.ParseTimestamp(r.RelDate)
	if err != nil {
		return nil, fmt.Errorf("invalid rel_date: %w", err)
	}

	dataFiles, err := uuidSetFromURLs(r.DataFiles)
	if err != nil {
		return nil, fmt.Errorf("invalid data file reference: %w", err)
	}

	return &insdb.Release{
		Tag:       r.Tag,
		RelDate:   relDate,
		Comment:   r.Comment,
		DataFiles: dataFiles,
	}, nil
}
