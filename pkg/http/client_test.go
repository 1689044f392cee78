package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "https://finance.sina.com.cn", r.Header.Get("Referer"))
			assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			assert.Equal(t, "1", r.Header.Get("X-Trace"))
			_, _ = w.Write([]byte(`{"rc":0}`))
		case "/empty":
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("test-agent"), WithHeader("X-Trace", "1"))
	ctx := context.Background()

	var out struct {
		RC int `json:"rc"`
	}
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok", map[string]string{"Referer": "https://finance.sina.com.cn"}, &out))
	assert.Equal(t, 0, out.RC)

	_, err := c.Get(ctx, srv.URL+"/empty", nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = c.Get(ctx, srv.URL+"/missing", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}
