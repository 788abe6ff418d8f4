package cronos

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/contaleve/onboarding-backend/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		PublicKey:  "pub-key",
		PrivateKey: "priv-key",
	}, cache.NewMemoryTokenStore())
	require.NoError(t, err)

	return client, server
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_TokenExchange(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/application/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("pub-key:priv-key"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "app-token-1"}`))
	})
	mux.HandleFunc("/v1/register/individual", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "code": 200, "individual_id": "ind-1", "document": "12345678901", "status": "em_cadastro", "current_step": 1, "tipo_conta": "cpf"}`))
	})

	client, _ := newTestClient(t, mux)

	// Two calls reuse the cached token
	for i := 0; i < 2; i++ {
		resp, err := client.Register(context.Background(), "12345678901")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "ind-1", resp.IndividualID)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	var tokenCalls, registerCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/application/token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Write([]byte(`{"token": "stale-token"}`))
		} else {
			w.Write([]byte(`{"token": "fresh-token"}`))
		}
	})
	mux.HandleFunc("/v1/register/individual", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&registerCalls, 1)
		if r.Header.Get("Authorization") == "Bearer stale-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "message": "token expirado"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "code": 200, "individual_id": "ind-2", "document": "12345678901", "status": "em_cadastro", "tipo_conta": "cpf"}`))
	})

	client, _ := newTestClient(t, mux)

	resp, err := client.Register(context.Background(), "12345678901")
	require.NoError(t, err)
	assert.Equal(t, "ind-2", resp.IndividualID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&registerCalls))
}

func TestClient_ConflictCarriesUpstreamState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/application/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "app-token"}`))
	})
	mux.HandleFunc("/v1/register/individual", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success": false, "code": 409, "message": "documento já cadastrado", "individual_id": "ind-existing", "document": "12345678901", "status": "aguardando aprovação", "tipo_conta": "cpf", "pending_fields": ["selfie"]}`))
	})

	client, _ := newTestClient(t, mux)

	resp, err := client.Register(context.Background(), "12345678901")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Response)
	assert.Equal(t, "ind-existing", apiErr.Response.IndividualID)
	assert.Equal(t, "aguardando aprovação", apiErr.Response.Status)
	assert.Equal(t, []string{"selfie"}, apiErr.Response.PendingFields)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "Bad request", status: http.StatusBadRequest, want: ErrValidation},
		{name: "Unprocessable", status: http.StatusUnprocessableEntity, want: ErrValidation},
		{name: "Not found", status: http.StatusNotFound, want: ErrNotFound},
		{name: "Conflict", status: http.StatusConflict, want: ErrConflict},
		{name: "Server error", status: http.StatusInternalServerError, want: ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/application/token", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"token": "app-token"}`))
			})
			mux.HandleFunc("/v1/individual/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"success": false}`))
			})

			client, _ := newTestClient(t, mux)

			_, err := client.Situation(context.Background(), "12345678901")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_DocumentImageMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/application/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "app-token"}`))
	})
	mux.HandleFunc("/v1/register/individual/step3", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ind-1", r.FormValue("individual_id"))
		assert.Equal(t, "rg", r.FormValue("image_type"))
		assert.Equal(t, "rg_frente", r.FormValue("document_type"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "rg-frente.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "code": 200, "individual_id": "ind-1", "document": "12345678901", "status": "em_cadastro", "current_step": 4, "tipo_conta": "cpf"}`))
	})

	client, _ := newTestClient(t, mux)

	resp, err := client.DocumentImage(context.Background(), DocumentImageRequest{
		IndividualID: "ind-1",
		ImageType:    "rg",
		DocumentType: "rg_frente",
		File: FilePart{
			FileName:    "rg-frente.jpg",
			ContentType: "image/jpeg",
			Content:     []byte("fake-jpeg-bytes"),
		},
	})
	require.NoError(t, err)

	step, ok := resp.CurrentStep.Int()
	assert.True(t, ok)
	assert.Equal(t, 4, step)
}
