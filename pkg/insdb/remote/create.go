package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

// The creation methods are plain passthroughs to the server's collection
// endpoints. Parents identified by path are first resolved through the
// same path-resolution contract the queries use, then referenced by URL,
// because that is the form the server expects for cross references.

// createdResponse is the common shape of a successful creation reply.
type createdResponse struct {
	UUID string `json:"uuid"`
}

func (r *createdResponse) uuid() (uuid.UUID, error) {
	return uuidFromURL(r.UUID)
}

// CreateFormatSpec registers a new format specification document and
// returns its UUID.
func (c *Client) CreateFormatSpec(ctx context.Context, documentRef, title, docMIMEType, fileMIMEType string) (uuid.UUID, error) {
	payload := map[string]any{
		"document_ref":   documentRef,
		"title":          title,
		"doc_mime_type":  docMIMEType,
		"file_mime_type": fileMIMEType,
	}

	var resp createdResponse
	if err := c.postJSON(ctx, c.endpoint("/api/format_specs/"), payload, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.uuid()
}

// CreateEntity creates a new entity under the entity at parentPath, or a
// new root entity when parentPath is empty, and returns its UUID.
func (c *Client) CreateEntity(ctx context.Context, name, parentPath string) (uuid.UUID, error) {
	payload := map[string]any{"name": name}

	if parentPath != "" {
		parent, err := c.QueryEntity(ctx, parentPath, false)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to resolve parent path %q: %w", parentPath, err)
		}
		payload["parent"] = c.entityURL(parent.UUID)
	}

	var resp createdResponse
	if err := c.postJSON(ctx, c.endpoint("/api/entities/"), payload, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.uuid()
}

// CreateQuantity creates a new quantity under the entity at entityPath and
// returns its UUID. formatSpec may be uuid.Nil.
func (c *Client) CreateQuantity(ctx context.Context, name, entityPath string, formatSpec uuid.UUID) (uuid.UUID, error) {
	entity, err := c.QueryEntity(ctx, entityPath, false)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve entity path %q: %w", entityPath, err)
	}

	payload := map[string]any{
		"name":          name,
		"parent_entity": c.entityURL(entity.UUID),
	}
	if formatSpec != uuid.Nil {
		payload["format_spec"] = c.endpoint(fmt.Sprintf("/api/format_specs/%s/", formatSpec))
	}

	var resp createdResponse
	if err := c.postJSON(ctx, c.endpoint("/api/quantities/"), payload, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.uuid()
}

// CreateDataFile registers a new data file record under the quantity at
// quantityPath and returns its UUID. The payload bytes themselves are
// uploaded by the transport collaborator, not by this call.
func (c *Client) CreateDataFile(ctx context.Context, quantityPath, name string, uploadDate time.Time, metadata map[string]any, specVersion, comment string) (uuid.UUID, error) {
	quantity, err := c.QueryQuantity(ctx, quantityPath, false)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve quantity path %q: %w", quantityPath, err)
	}

	payload := map[string]any{
		"name":         name,
		"upload_date":  uploadDate.UTC().Format(time.RFC3339),
		"quantity":     c.endpoint(fmt.Sprintf("/api/quantities/%s/", quantity.UUID)),
		"spec_version": specVersion,
		"comment":      comment,
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	var resp createdResponse
	if err := c.postJSON(ctx, c.endpoint("/api/data_files/"), payload, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.uuid()
}

// CreateRelease creates a new release selecting the given data files.
func (c *Client) CreateRelease(ctx context.Context, tag string, relDate time.Time, comment string, dataFiles []uuid.UUID) error {
	refs := make([]string, 0, len(dataFiles))
	for _, id := range dataFiles {
		refs = append(refs, c.endpoint(fmt.Sprintf("/api/data_files/%s/", id)))
	}

	payload := map[string]any{
		"tag":        tag,
		"rel_date":   relDate.UTC().Format(time.RFC3339),
		"comment":    comment,
		"data_files": refs,
	}

	return c.postJSON(ctx, c.endpoint("/api/releases/"), payload, nil)
}

func (c *Client) entityURL(id uuid.UUID) string {
	return c.endpoint(fmt.Sprintf("/api/entities/%s/", id))
}

var _ insdb.Database = (*Client)(nil)
