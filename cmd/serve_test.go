package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/KaramelBytes/oncoreport-cli/internal/config"
)

func serveConfig(t *testing.T) *cfgpkg.Global {
	t.Helper()
	return &cfgpkg.Global{
		LabelColumn:       "diagnosis",
		LabelMapping:      map[string]int{"B": 0, "M": 1},
		DropColumns:       []string{"id"},
		TestSize:          0.2,
		RandomState:       42,
		CVFolds:           5,
		ScalingMethod:     "standard",
		FeatureSelectionK: 2,
		TopFeaturesCount:  3,
		ReportDir:         t.TempDir(),
		ReportPrefix:      "breast_cancer_report",
		MaxUploadSizeMB:   8,
	}
}

func testCSV() []byte {
	var buf bytes.Buffer
	buf.WriteString("id,diagnosis,radius_mean,texture_mean\n")
	for i := 0; i < 40; i++ {
		label, base := "B", 10.0
		if i%2 == 0 {
			label, base = "M", 20.0
		}
		fmt.Fprintf(&buf, "%d,%s,%.2f,%.2f\n", i, label, base+float64(i%5)*0.3, base/2+float64(i%7)*0.2)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServeAnalyzeUpload(t *testing.T) {
	c := serveConfig(t)
	srv := newServer(c, quietLogger())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "cancer.csv", testCSV()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RunID)
	assert.NotEmpty(t, resp.Timestamp)
	require.NotEmpty(t, resp.Files)

	// Every advertised file should be downloadable.
	for _, name := range resp.Files {
		dl := httptest.NewRecorder()
		srv.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
		assert.Equal(t, http.StatusOK, dl.Code, "file %s", name)
	}
}

func TestServeAnalyzeRejectsNonCSV(t *testing.T) {
	srv := newServer(serveConfig(t), quietLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "data.xlsx", []byte("junk")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeAnalyzeRejectsMissingFile(t *testing.T) {
	srv := newServer(serveConfig(t), quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeAnalyzeBadDataset(t *testing.T) {
	srv := newServer(serveConfig(t), quietLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "cancer.csv", []byte("a,b\n1,2\n")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestServeListReports(t *testing.T) {
	c := serveConfig(t)
	srv := newServer(c, quietLogger())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "cancer.csv", testCSV()))
	require.Equal(t, http.StatusOK, rec.Code)

	list := httptest.NewRecorder()
	srv.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.Equal(t, http.StatusOK, list.Code)

	var payload struct {
		Success bool          `json:"success"`
		Reports []reportEntry `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.NotEmpty(t, payload.Reports)
}

func TestServeDownloadTraversalBlocked(t *testing.T) {
	c := serveConfig(t)
	srv := newServer(c, quietLogger())

	secret := c.ReportDir + "/../secret.txt"
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0o644))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/..%2Fsecret.txt", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)
}
