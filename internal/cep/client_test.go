package cep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverClient(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	return srv, &Client{baseURL: srv.URL, httpClient: &http.Client{Timeout: time.Second}}
}

func TestLookupMapsViaCEPFields(t *testing.T) {
	srv, client := serverClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/01310100/json/", r.URL.Path)
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	})
	defer srv.Close()

	addr, err := client.Lookup(context.Background(), "01310-100")
	require.NoError(t, err)

	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "Bela Vista", addr.Neighborhood)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)
}

func TestLookupUnknownCEP(t *testing.T) {
	srv, client := serverClient(func(w http.ResponseWriter, r *http.Request) {
		// ViaCEP answers 200 with an erro flag for unknown codes
		w.Write([]byte(`{"erro": true}`))
	})
	defer srv.Close()

	_, err := client.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupRejectsMalformedCEP(t *testing.T) {
	client := NewClient()
	for _, cep := range []string{"", "123", "123456789", "abcdefgh"} {
		_, err := client.Lookup(context.Background(), cep)
		assert.ErrorIs(t, err, ErrInvalidCEP, "cep %q", cep)
	}
}
