package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphBody = `{
  "nodes": [
    {"id": "1", "position": {"x": 0, "y": 450}, "data": {"label": "전기기능사", "level": "기능사"}, "type": "default"},
    {"id": "3", "position": {"x": 0, "y": 300}, "data": {"label": "전기산업기사", "level": "산업기사", "category": "전기"}}
  ],
  "edges": [
    {"id": "e1-3", "source": "1", "target": "3", "type": "smoothstep", "animated": false}
  ]
}`

func TestFetchGraph(t *testing.T) {
	t.Run("unfiltered omits category", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/certifications/graph", r.URL.Path)
			assert.Empty(t, r.URL.RawQuery)
			_, _ = w.Write([]byte(graphBody))
		}))
		defer srv.Close()

		c := NewClient(srv.URL + "/api/v1/")
		ds, err := c.FetchGraph(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, ds.Nodes, 2)
		require.Len(t, ds.Edges, 1)
		assert.Equal(t, "전기산업기사", ds.Nodes[1].Data.Label)
		assert.Equal(t, 300.0, ds.Nodes[1].Position.Y)
		assert.Equal(t, "3", ds.Edges[0].Target)
	})

	t.Run("category is sent as query parameter", func(t *testing.T) {
		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query().Get("category")
			_, _ = w.Write([]byte(`{"nodes":[],"edges":[]}`))
		}))
		defer srv.Close()

		ds, err := NewClient(srv.URL).FetchGraph(context.Background(), "전기")
		require.NoError(t, err)
		assert.True(t, ds.IsEmpty())
		assert.Equal(t, "전기", got)
	})

	t.Run("server error is a StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).FetchGraph(context.Background(), "IT")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, OpGraph, se.Op)
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	})

	t.Run("malformed body is a decode error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"nodes": [`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).FetchGraph(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding response")
	})
}

func TestFetchCertification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/certifications/6":
			_, _ = w.Write([]byte(`{
				"id": 6, "name": "정보처리기사", "level": "기사", "level_order": 3,
				"category_main": "IT", "issuer": "한국산업인력공단",
				"fee_written": 19400, "fee_practical": 22600, "pass_rate": "45.2%",
				"is_active": true,
				"prerequisites": [{"id": 4, "name": "정보처리산업기사", "level_order": 2}],
				"required_for": [{"id": 9, "name": "정보처리기술사", "level_order": 4}]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	detail, err := c.FetchCertification(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, "정보처리기사", detail.Name)
	require.NotNil(t, detail.FeeWritten)
	assert.Equal(t, 19400, *detail.FeeWritten)
	require.Len(t, detail.Prerequisites, 1)
	assert.Equal(t, 4, detail.Prerequisites[0].ID)
	require.Len(t, detail.RequiredFor, 1)
	assert.Equal(t, "정보처리기술사", detail.RequiredFor[0].Name)

	_, err = c.FetchCertification(context.Background(), 404)
	assert.True(t, IsNotFound(err))

	_, err = c.FetchCertification(context.Background(), 0)
	assert.Error(t, err)
}

func TestFetchCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"main":"IT","subs":[{"name":"정보기술","count":3}],"total":3}]`))
	}))
	defer srv.Close()

	tree, err := NewClient(srv.URL).FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "IT", tree[0].Main)
	assert.Equal(t, 3, tree[0].Total)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(graphBody))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithTimeout(20*time.Millisecond)).FetchGraph(context.Background(), "")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	assert.Equal(t, "http://x/api", NewClient(" http://x/api/ ").BaseURL())
}
