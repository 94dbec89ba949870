// Package local implements the InstrumentDB access contract on top of a
// flat-file catalog: a directory holding a schema document plus the data
// files it references. The whole document is parsed once at construction
// time into an in-memory index; the storage is treated as read-only.
package local

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// schemaFileNames lists the accepted schema document names, in preference
// order: the first one found in the storage directory wins.
var schemaFileNames = []string{
	"schema.json",
	"schema.json.gz",
	"schema.yaml",
	"schema.yaml.gz",
}

// rawSchema mirrors the top-level layout of a schema document. Entities
// are a forest of nested records; quantities, data files and releases are
// flat lists.
type rawSchema struct {
	FormatSpecifications []rawFormatSpec `json:"format_specifications" yaml:"format_specifications"`
	Entities             []rawEntity     `json:"entities" yaml:"entities"`
	Quantities           []rawQuantity   `json:"quantities" yaml:"quantities"`
	DataFiles            []rawDataFile   `json:"data_files" yaml:"data_files"`
	Releases             []rawRelease    `json:"releases" yaml:"releases"`
}

type rawFormatSpec struct {
	UUID         string `json:"uuid" yaml:"uuid"`
	DocumentRef  string `json:"document_ref" yaml:"document_ref"`
	Title        string `json:"title" yaml:"title"`
	DocFileName  string `json:"doc_file_name" yaml:"doc_file_name"`
	DocMIMEType  string `json:"doc_mime_type" yaml:"doc_mime_type"`
	FileMIMEType string `json:"file_mime_type" yaml:"file_mime_type"`
}

type rawEntity struct {
	UUID     string      `json:"uuid" yaml:"uuid"`
	Name     string      `json:"name" yaml:"name"`
	Children []rawEntity `json:"children" yaml:"children"`
}

type rawQuantity struct {
	UUID       string `json:"uuid" yaml:"uuid"`
	Name       string `json:"name" yaml:"name"`
	FormatSpec string `json:"format_spec" yaml:"format_spec"`
	Entity     string `json:"entity" yaml:"entity"`
}

type rawDataFile struct {
	UUID         string         `json:"uuid" yaml:"uuid"`
	Name         string         `json:"name" yaml:"name"`
	UploadDate   string         `json:"upload_date" yaml:"upload_date"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
	FileName     string         `json:"file_name" yaml:"file_name"`
	Quantity     string         `json:"quantity" yaml:"quantity"`
	SpecVersion  string         `json:"spec_version" yaml:"spec_version"`
	Dependencies []string       `json:"dependencies" yaml:"dependencies"`
	PlotFile     string         `json:"plot_file" yaml:"plot_file"`
	PlotMIMEType string         `json:"plot_mime_type" yaml:"plot_mime_type"`
	Comment      string         `json:"comment" yaml:"comment"`
}

type rawRelease struct {
	Tag         string   `json:"tag" yaml:"tag"`
	ReleaseDate string   `json:"release_date" yaml:"release_date"`
	Comments    string   `json:"comments" yaml:"comments"`
	DataFiles   []string `json:"data_files" yaml:"data_files"`
}

// findSchemaFile returns the path of the first schema document present in
// the storage directory, or a FormatError when none exists.
func findSchemaFile(storagePath string) (string, error) {
	for _, name := range schemaFileNames {
		path := filepath.Join(storagePath, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &insdb.FormatError{
		Path:    storagePath,
		Message: "no valid schema file found",
	}
}

// readSchema opens a schema document, transparently unwrapping gzip, and
// decodes it with the serializer matching its extension.
func readSchema(path string) (*rawSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	name := path
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress schema file: %w", err)
		}
		defer gz.Close()
		reader = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	schema := &rawSchema{}
	switch filepath.Ext(name) {
	case ".json":
		if err := json.Unmarshal(data, schema); err != nil {
			return nil, fmt.Errorf("failed to decode JSON schema: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, schema); err != nil {
			return nil, fmt.Errorf("failed to decode YAML schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema file %q", path)
	}

	return schema, nil
}
