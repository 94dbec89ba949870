package remote

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDFromURL(t *testing.T) {
	id := uuid.MustParse("a6dd07ee-9721-4453-abb1-e58aa53a9c01")

	cases := []string{
		"https://insdb.example.com/api/data_files/" + id.String() + "/",
		"https://insdb.example.com/api/data_files/" + id.String(),
		id.String(),
	}
	for _, rawurl := range cases {
		got, err := uuidFromURL(rawurl)
		require.NoError(t, err, rawurl)
		assert.Equal(t, id, got)
	}

	_, err := uuidFromURL("https://insdb.example.com/api/data_files/oops/")
	assert.Error(t, err)
	_, err = uuidFromURL("")
	assert.Error(t, err)
}

func TestDataFileResponseTranslation(t *testing.T) {
	fileID := uuid.MustParse("ed8ef738-ef1e-474b-b867-646c74f89694")
	quantityID := uuid.MustParse("6d1d72ac-ad22-4e94-9ff4-4c3fa8d47c53")
	depID := uuid.MustParse("97e44e3c-2b4e-4161-a28e-7a193a9c3c70")

	resp := dataFileResponse{
		UUID:       "https://insdb.example.com/api/data_files/" + fileID.String() + "/",
		Name:       "bandpass27m.csv",
		UploadDate: "2018-03-01T10:15:00",
		Quantity:   "https://insdb.example.com/api/quantities/" + quantityID.String() + "/",
		Dependencies: []string{
			"https://insdb.example.com/api/data_files/" + depID.String() + "/",
		},
		ReleaseTags: []string{
			"https://insdb.example.com/api/releases/planck2018/",
			"https://insdb.example.com/api/releases/planck2021/",
		},
		DownloadLink: "https://insdb.example.com/files/bandpass27m.csv",
	}

	df, err := resp.toDataFile()
	require.NoError(t, err)
	assert.Equal(t, fileID, df.UUID)
	assert.Equal(t, quantityID, df.Quantity)
	assert.True(t, df.Dependencies.Contains(depID))
	assert.Equal(t, []string{"planck2018", "planck2021"}, df.ReleaseTags.Sorted())
	assert.Equal(t, "https://insdb.example.com/files/bandpass27m.csv", df.DownloadURL)
}
