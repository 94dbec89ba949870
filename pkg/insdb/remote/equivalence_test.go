package remote

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instrumentdb/insdb/pkg/insdb/local"
)

// Both backends must resolve the same release path to the same record.
func TestCrossBackendEquivalence(t *testing.T) {
	ctx := context.Background()

	schema := map[string]any{
		"entities": []map[string]any{
			{
				"uuid": lfiID.String(),
				"name": "LFI",
				"children": []map[string]any{
					{
						"uuid": "04c53542-e8a8-421f-aadb-c78b7fe6f265",
						"name": "frequency_030_ghz",
						"children": []map[string]any{
							{"uuid": hornID.String(), "name": "27M"},
						},
					},
				},
			},
		},
		"quantities": []map[string]any{
			{"uuid": bandpassID.String(), "name": "bandpass", "entity": hornID.String()},
		},
		"data_files": []map[string]any{
			{
				"uuid":        file2018ID.String(),
				"name":        "bandpass27m.csv",
				"upload_date": "2018-03-01T10:15:00",
				"quantity":    bandpassID.String(),
			},
		},
		"releases": []map[string]any{
			{
				"tag":          "planck2018",
				"release_date": "2018-07-17",
				"data_files":   []string{file2018ID.String()},
			},
		},
	}

	dir := t.TempDir()
	data, err := json.Marshal(schema)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), data, 0o644))

	localDB, err := local.Open(dir)
	require.NoError(t, err)
	client := connectTestClient(t, nil)

	const path = "/releases/planck2018/LFI/frequency_030_ghz/27M/bandpass"
	fromLocal, err := localDB.QueryDataFile(ctx, path, false)
	require.NoError(t, err)
	fromRemote, err := client.QueryDataFile(ctx, path, false)
	require.NoError(t, err)

	assert.Equal(t, fromLocal.UUID, fromRemote.UUID)
	assert.Equal(t, fromLocal.Name, fromRemote.Name)
	assert.Equal(t, fromLocal.Quantity, fromRemote.Quantity)
	assert.True(t, fromLocal.UploadDate.Equal(fromRemote.UploadDate))
}
