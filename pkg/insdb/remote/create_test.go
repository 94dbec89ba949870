package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCreationServer accepts the collection POSTs, records the decoded
// payloads by path, and replies 201 with a fresh UUID.
func newCreationServer(t *testing.T, captured map[string]map[string]any) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": testToken})
			return
		}
		if r.Header.Get("Authorization") != "Token "+testToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch r.Method {
		case http.MethodGet:
			// Parent resolution during creation goes through the tree
			// endpoint; answer with the fixture horn.
			json.NewEncoder(w).Encode(map[string]any{
				"uuid": srv.URL + "/api/entities/" + hornID.String() + "/",
				"name": "27M",
			})
		case http.MethodPost:
			payload := map[string]any{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			captured[r.URL.Path] = payload

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"uuid": srv.URL + r.URL.Path + uuid.NewString() + "/",
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	captured := map[string]map[string]any{}
	srv := newCreationServer(t, captured)

	client, err := Connect(ctx, srv.URL, testUser, testPass)
	require.NoError(t, err)

	t.Run("format specification", func(t *testing.T) {
		id, err := client.CreateFormatSpec(ctx, "DOC-0002", "Noise table format", "text/html", "text/csv")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		payload := captured["/api/format_specs/"]
		assert.Equal(t, "DOC-0002", payload["document_ref"])
		assert.Equal(t, "text/csv", payload["file_mime_type"])
	})

	t.Run("root entity has no parent reference", func(t *testing.T) {
		_, err := client.CreateEntity(ctx, "HFI", "")
		require.NoError(t, err)

		payload := captured["/api/entities/"]
		assert.Equal(t, "HFI", payload["name"])
		assert.NotContains(t, payload, "parent")
	})

	t.Run("child entity references the resolved parent", func(t *testing.T) {
		_, err := client.CreateEntity(ctx, "28M", "/LFI/frequency_030_ghz")
		require.NoError(t, err)

		payload := captured["/api/entities/"]
		assert.Equal(t, "28M", payload["name"])
		assert.Equal(t, srv.URL+"/api/entities/"+hornID.String()+"/", payload["parent"])
	})

	t.Run("quantity", func(t *testing.T) {
		_, err := client.CreateQuantity(ctx, "gain", "/LFI/frequency_030_ghz/27M", specID)
		require.NoError(t, err)

		payload := captured["/api/quantities/"]
		assert.Equal(t, "gain", payload["name"])
		assert.Equal(t, srv.URL+"/api/format_specs/"+specID.String()+"/", payload["format_spec"])
	})

	t.Run("release date is normalized to UTC", func(t *testing.T) {
		relDate := time.Date(2026, 2, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
		err := client.CreateRelease(ctx, "planck2026", relDate, "next release", []uuid.UUID{file2018ID})
		require.NoError(t, err)

		payload := captured["/api/releases/"]
		assert.Equal(t, "planck2026", payload["tag"])
		assert.Equal(t, "2026-02-01T12:00:00Z", payload["rel_date"])
		refs, ok := payload["data_files"].([]any)
		require.True(t, ok)
		require.Len(t, refs, 1)
		assert.Equal(t, srv.URL+"/api/data_files/"+file2018ID.String()+"/", refs[0])
	})
}
