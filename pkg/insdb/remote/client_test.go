package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instrumentdb/insdb/pkg/insdb"
)

const (
	testUser  = "observer"
	testPass  = "s3cret"
	testToken = "3fca7b2a9cbb"
)

var (
	specID     = uuid.MustParse("e406caf2-95c9-4555-9579-e1b5e6e72a58")
	lfiID      = uuid.MustParse("2180affe-f9c3-4048-a407-6bd4d3ad71e1")
	hornID     = uuid.MustParse("8734a013-4184-412c-ab5a-963388beae34")
	bandpassID = uuid.MustParse("6d1d72ac-ad22-4e94-9ff4-4c3fa8d47c53")
	file2018ID = uuid.MustParse("ed8ef738-ef1e-474b-b867-646c74f89694")
)

const bandpassContent = "wavenumber_ghz,weight\n25.0,0.35\n27.5,0.72\n30.0,1.00\n"

// newTestServer runs a fake catalog server holding one horn of the fixture
// instrument. Every route requires the session token except the login
// endpoint itself. requests counts the calls that got past authentication.
func newTestServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("username") != testUser || r.PostForm.Get("password") != testPass {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": testToken})
			return
		}

		if r.Header.Get("Authorization") != "Token "+testToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if requests != nil {
			requests.Add(1)
		}

		base := srv.URL
		entityURL := func(id uuid.UUID) string { return base + "/api/entities/" + id.String() + "/" }
		quantityURL := func(id uuid.UUID) string { return base + "/api/quantities/" + id.String() + "/" }
		dataFileURL := func(id uuid.UUID) string { return base + "/api/data_files/" + id.String() + "/" }

		horn := map[string]any{
			"uuid":       entityURL(hornID),
			"name":       "27M",
			"parent":     entityURL(lfiID),
			"quantities": []string{quantityURL(bandpassID)},
		}
		bandpass := map[string]any{
			"uuid":          quantityURL(bandpassID),
			"name":          "bandpass",
			"format_spec":   base + "/api/format_specs/" + specID.String() + "/",
			"parent_entity": entityURL(hornID),
			"data_files":    []string{dataFileURL(file2018ID)},
		}
		bandpassFile := map[string]any{
			"uuid":          dataFileURL(file2018ID),
			"name":          "bandpass27m.csv",
			"upload_date":   "2018-03-01T10:15:00",
			"quantity":      quantityURL(bandpassID),
			"spec_version":  "1.0",
			"metadata":      map[string]any{"fknee_mhz": 113.9},
			"release_tags":  []string{base + "/api/releases/planck2018/"},
			"download_link": base + "/files/bandpass27m.csv",
		}

		routes := map[string]any{
			"/api/entities/" + hornID.String() + "/":      horn,
			"/tree/LFI/frequency_030_ghz/27M":             horn,
			"/api/quantities/" + bandpassID.String() + "/": bandpass,
			"/tree/LFI/frequency_030_ghz/27M/bandpass":    bandpass,
			"/api/format_specs/" + specID.String() + "/": map[string]any{
				"document_ref":   "DOC-0001",
				"title":          "Bandpass CSV format",
				"doc_mime_type":  "text/html",
				"file_mime_type": "text/csv",
			},
			"/api/data_files/" + file2018ID.String() + "/":         bandpassFile,
			"/releases/planck2018/LFI/frequency_030_ghz/27M/bandpass/": bandpassFile,
			"/api/releases/planck2018/": map[string]any{
				"tag":        "planck2018",
				"rel_date":   "2018-07-17",
				"comment":    "2018 legacy release",
				"data_files": []string{dataFileURL(file2018ID)},
			},
		}

		if r.URL.Path == "/files/bandpass27m.csv" {
			io.WriteString(w, bandpassContent)
			return
		}
		payload, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func connectTestClient(t *testing.T, requests *atomic.Int64) *Client {
	t.Helper()
	srv := newTestServer(t, requests)
	client, err := Connect(context.Background(), srv.URL, testUser, testPass)
	require.NoError(t, err)
	return client
}

func TestConnect(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		srv := newTestServer(t, nil)
		client, err := Connect(context.Background(), srv.URL+"/", testUser, testPass)
		require.NoError(t, err)
		assert.Equal(t, srv.URL, client.ServerAddress())
	})

	t.Run("rejected login", func(t *testing.T) {
		srv := newTestServer(t, nil)
		_, err := Connect(context.Background(), srv.URL, testUser, "wrong")
		require.Error(t, err)
		assert.True(t, insdb.IsConnectionError(err))
	})
}

func TestQueryEntityRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	byUUID, err := client.QueryEntity(ctx, hornID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, hornID, byUUID.UUID)
	assert.Equal(t, "27M", byUUID.Name)
	assert.Equal(t, lfiID, byUUID.Parent)
	assert.True(t, byUUID.Quantities.Contains(bandpassID))
	assert.Empty(t, byUUID.FullPath)

	byPath, err := client.QueryEntity(ctx, "/LFI/frequency_030_ghz/27M", false)
	require.NoError(t, err)
	assert.Equal(t, byUUID, byPath)

	noSlash, err := client.QueryEntity(ctx, "LFI/frequency_030_ghz/27M", false)
	require.NoError(t, err)
	assert.Equal(t, byUUID, noSlash)
}

func TestQueryQuantityRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	byUUID, err := client.QueryQuantity(ctx, bandpassID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, "bandpass", byUUID.Name)
	assert.Equal(t, specID, byUUID.FormatSpec)
	assert.Equal(t, hornID, byUUID.Entity)
	assert.True(t, byUUID.DataFiles.Contains(file2018ID))

	byPath, err := client.QueryQuantity(ctx, "/LFI/frequency_030_ghz/27M/bandpass", false)
	require.NoError(t, err)
	assert.Equal(t, byUUID, byPath)
}

func TestQueryFormatSpecRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	spec, err := client.QueryFormatSpec(ctx, specID, false)
	require.NoError(t, err)
	assert.Equal(t, specID, spec.UUID)
	assert.Equal(t, "DOC-0001", spec.DocumentRef)
	assert.Equal(t, "text/csv", spec.FileMIMEType)
}

func TestQueryDataFileRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("by UUID", func(t *testing.T) {
		client := connectTestClient(t, nil)
		df, err := client.QueryDataFile(ctx, file2018ID.String(), false)
		require.NoError(t, err)
		assert.Equal(t, file2018ID, df.UUID)
		assert.Equal(t, bandpassID, df.Quantity)
		assert.Equal(t, []string{"planck2018"}, df.ReleaseTags.Sorted())
		assert.InDelta(t, 113.9, df.Metadata["fknee_mhz"], 1e-9)
		assert.NotEmpty(t, df.DownloadURL)
		assert.Empty(t, df.LocalPath)
	})

	t.Run("release path, with and without prefix", func(t *testing.T) {
		client := connectTestClient(t, nil)
		plain, err := client.QueryDataFile(ctx, "/planck2018/LFI/frequency_030_ghz/27M/bandpass", false)
		require.NoError(t, err)
		assert.Equal(t, file2018ID, plain.UUID)

		prefixed, err := client.QueryDataFile(ctx, "/releases/planck2018/LFI/frequency_030_ghz/27M/bandpass", false)
		require.NoError(t, err)
		assert.Equal(t, plain, prefixed)
	})

	t.Run("malformed path fails without a request", func(t *testing.T) {
		var requests atomic.Int64
		client := connectTestClient(t, &requests)
		_, err := client.QueryDataFile(ctx, "/planck2018/bandpass", false)
		assert.True(t, insdb.IsMalformedIdentifier(err))
		assert.Zero(t, requests.Load())
	})

	t.Run("unknown path", func(t *testing.T) {
		client := connectTestClient(t, nil)
		_, err := client.QueryDataFile(ctx, "/planck2013/LFI/frequency_030_ghz/27M/bandpass", false)
		require.Error(t, err)
		assert.True(t, insdb.IsConnectionError(err))
	})
}

func TestQueryReleaseRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	release, err := client.QueryRelease(ctx, "planck2018")
	require.NoError(t, err)
	assert.Equal(t, "planck2018", release.Tag)
	assert.Equal(t, "2018 legacy release", release.Comment)
	assert.True(t, release.DataFiles.Contains(file2018ID))
}

func TestOpenDataFileRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	t.Run("downloads the content", func(t *testing.T) {
		df, err := client.QueryDataFile(ctx, file2018ID.String(), false)
		require.NoError(t, err)

		reader, err := client.OpenDataFile(ctx, df)
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, bandpassContent, string(content))
	})

	t.Run("record without a download link", func(t *testing.T) {
		_, err := client.OpenDataFile(ctx, &insdb.DataFile{UUID: file2018ID})
		assert.ErrorIs(t, err, insdb.ErrNoDownloadURL)
	})
}

func TestTrackingRemote(t *testing.T) {
	ctx := context.Background()
	client := connectTestClient(t, nil)

	_, err := client.QueryEntity(ctx, hornID.String(), false)
	require.NoError(t, err)
	assert.Empty(t, client.Tracker().Entities())

	_, err = client.QueryEntity(ctx, hornID.String(), true)
	require.NoError(t, err)
	_, err = client.QueryDataFile(ctx, "/planck2018/LFI/frequency_030_ghz/27M/bandpass", true)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{hornID}, client.Tracker().Entities())
	assert.Equal(t, []uuid.UUID{file2018ID}, client.Tracker().DataFiles())
}
