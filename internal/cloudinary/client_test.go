package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRawPostsSignedForm(t *testing.T) {
	var form map[string]string
	var fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/raw/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		raw, _ := io.ReadAll(f)
		fileBody = string(raw)
		_, _ = w.Write([]byte(`{"public_id":"uploads/august_1754038800.pdf","secure_url":"https://res.example/august.pdf","resource_type":"raw","bytes":9}`))
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "uploads")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1754038800, 0) }

	res, err := c.UploadRaw(context.Background(), []byte("%PDF-1.4\n"), "August Report.PDF")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/august.pdf", res.SecureURL)
	assert.Equal(t, "raw", res.ResourceType)

	assert.Equal(t, "%PDF-1.4\n", fileBody)
	assert.Equal(t, "uploads", form["folder"])
	assert.Equal(t, "August_Report_1754038800.pdf", form["public_id"])
	assert.Equal(t, c.sign(map[string]string{
		"folder":    "uploads",
		"public_id": "August_Report_1754038800.pdf",
		"timestamp": "1754038800",
	}), form["signature"])
}

func TestUploadRawSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL
	_, err := c.UploadRaw(context.Background(), []byte("x"), "a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = New("", "", "", "").UploadRaw(context.Background(), []byte("x"), "a.txt")
	assert.Error(t, err)
}
