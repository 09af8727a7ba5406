package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Of(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func TestFetch(t *testing.T) {
	payload := []byte("order_id,user_id\n1,100\n")
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(server.Client(), nil)
	info := FileInfo{Name: "transactions.csv", URL: server.URL, MD5: md5Of(payload)}

	path, err := client.Fetch(context.Background(), info, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transactions.csv"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, 1, hits)
}

func TestFetch_SkipsExistingFile(t *testing.T) {
	payload := []byte("cached content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request for an already downloaded file")
	}))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), payload, 0o644))

	client := NewClient(server.Client(), nil)
	info := FileInfo{Name: "data.csv", URL: server.URL, MD5: md5Of(payload)}

	path, err := client.Fetch(context.Background(), info, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.csv"), path)
}

func TestFetch_RedownloadsOnChecksumDrift(t *testing.T) {
	payload := []byte("fresh content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("stale"), 0o644))

	client := NewClient(server.Client(), nil)
	info := FileInfo{Name: "data.csv", URL: server.URL, MD5: md5Of(payload)}

	path, err := client.Fetch(context.Background(), info, dir)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetch_ChecksumMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(server.Client(), nil)
	info := FileInfo{Name: "data.csv", URL: server.URL, MD5: md5Of([]byte("expected"))}

	_, err := client.Fetch(context.Background(), info, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	// The partial file must not survive a failed verification.
	_, err = os.Stat(filepath.Join(dir, "data.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.Client(), nil)
	info := FileInfo{Name: "data.csv", URL: server.URL}

	_, err := client.Fetch(context.Background(), info, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestFetch_NoChecksumAccepted(t *testing.T) {
	payload := []byte("anything")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(server.Client(), nil)
	path, err := client.Fetch(context.Background(),
		FileInfo{Name: "data.csv", URL: server.URL}, t.TempDir())
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
