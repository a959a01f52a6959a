package util

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

func Test_programDigest(t *testing.T) {
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", ProgramDigest(nil))
	assert.Equal(t, "c5d24601", ShortDigest([]byte{}))
	assert.NotEqual(t, ProgramDigest([]byte("a.")), ProgramDigest([]byte("b.")))
}

func Test_client(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
		case "/json":
			w.Write([]byte(`{"models":"0"}`))
		default:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"type":"SessionStateError"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	resp, err := c.PostJSON(ctx, "echo", `{"base": []}`)
	require.Nil(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, `{"base": []}`, resp.String())

	var conf map[string]string
	require.Nil(t, c.GetJSON(ctx, "/json", &conf))
	assert.Equal(t, "0", conf["models"])

	resp, err = c.Get(ctx, "close")
	require.Nil(t, err)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.NotNil(t, c.GetJSON(ctx, "close", &conf))
}
