package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zorochan404/inf-chat/internal/config"
)

func TestPublicURL(t *testing.T) {
	cfg := config.StorageConfig{Endpoint: "localhost:9000", BucketAttachments: "infchat-attachments"}
	assert.Equal(t, "http://localhost:9000/infchat-attachments/attachments/a.png", PublicURL(cfg, "attachments/a.png"))

	cfg.UseSSL = true
	assert.Equal(t, "https://localhost:9000/infchat-attachments/k", PublicURL(cfg, "k"))

	cfg.Endpoint = "https://s3.example.com/"
	assert.Equal(t, "https://s3.example.com/infchat-attachments/k", PublicURL(cfg, "k"))

	cfg.PublicURL = "https://cdn.example.com/files/"
	assert.Equal(t, "https://cdn.example.com/files/k", PublicURL(cfg, "k"))
}

func TestEnsureBucketCreatesAndOpensAttachments(t *testing.T) {
	var (
		mu       sync.Mutex
		calls    []string
		policies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_, isPolicy := r.URL.Query()["policy"]
		switch {
		case r.Method == http.MethodHead:
			calls = append(calls, "head")
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && isPolicy:
			body, _ := io.ReadAll(r.Body)
			calls = append(calls, "policy")
			policies = append(policies, string(body))
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut:
			calls = append(calls, "make")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:          srv.URL,
		AccessKey:         "access",
		SecretKey:         "secret",
		BucketAttachments: "infchat-attachments",
		Region:            "us-east-1",
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"head", "make", "policy"}, calls)
	require.Len(t, policies, 1)

	var doc struct {
		Statement []struct {
			Effect    string
			Action    []string
			Resource  []string
			Principal struct{ AWS []string }
		}
	}
	require.NoError(t, json.Unmarshal([]byte(policies[0]), &doc))
	require.Len(t, doc.Statement, 1)
	st := doc.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::infchat-attachments/attachments/*"}, st.Resource)
	assert.Equal(t, []string{"*"}, st.Principal.AWS)
}
