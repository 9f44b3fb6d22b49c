package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/syncer"
)

func TestCreateReportSendsIdempotencyKey(t *testing.T) {
	var gotKey, gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reports", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":17},"message":"Report created"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	id, err := client.CreateReport(context.Background(), &models.QueuedReport{
		LocalID:   "local-abc",
		Category:  "illegal_dumping",
		Latitude:  41.01,
		Longitude: 28.97,
		Photos:    []models.QueuedPhoto{{URL: "https://cdn.example/p0"}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(17), id)
	assert.Equal(t, "local-abc", gotKey)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "illegal_dumping", gotBody["category"])
	assert.Equal(t, []interface{}{"https://cdn.example/p0"}, gotBody["photos"])
}

func TestCreateReportRejectsUnuploadedPhotos(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	_, err := client.CreateReport(context.Background(), &models.QueuedReport{
		LocalID:  "local-abc",
		Category: "noise",
		Photos:   []models.QueuedPhoto{{BlobKey: "blob/local-abc/0"}},
	})
	assert.Error(t, err)
}

func TestCreateReportRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":"category is required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.CreateReport(context.Background(), &models.QueuedReport{LocalID: "x", Category: "noise"})

	var remoteErr *syncer.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Equal(t, "category is required", remoteErr.Message)
}

func TestCreateReportNetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	_, err := client.CreateReport(context.Background(), &models.QueuedReport{LocalID: "x", Category: "noise"})

	var netErr *syncer.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestHealthURL(t *testing.T) {
	client := NewClient("https://api.eco-alert.example", "")
	assert.Equal(t, "https://api.eco-alert.example/health", client.HealthURL())
}
