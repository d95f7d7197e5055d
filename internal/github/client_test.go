package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopLevelEntries(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/cdn/contents", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "libcat/test", r.Header.Get("User-Agent"))
		gotQuery = r.URL.Query().Get("ref")
		_, _ = w.Write([]byte(`[
			{"name": "README.md", "path": "README.md", "sha": "r1", "type": "file"},
			{"name": "files", "path": "files", "sha": "f1", "type": "dir"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRepo("acme", "cdn"), WithRef("main"), WithUserAgent("libcat/test"))
	entries, err := c.TopLevelEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", gotQuery)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "files", Path: "files", SHA: "f1", Type: "dir"}, entries[1])
}

func TestTree_RecursiveQueryAndModes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/jsdelivr/jsdelivr/git/trees/abc", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		_, _ = w.Write([]byte(`{"sha": "abc", "truncated": true, "tree": [
			{"path": "3.6.0", "mode": "040000", "type": "tree", "sha": "d1"},
			{"path": "3.6.0/jquery.js", "mode": "100644", "type": "blob", "sha": "b1"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	tree, err := c.Tree(context.Background(), "abc", true)
	require.NoError(t, err)
	assert.True(t, tree.Truncated)
	require.Len(t, tree.Entries, 2)
	assert.True(t, tree.Entries[0].IsDir())
	assert.False(t, tree.Entries[0].IsRegular())
	assert.True(t, tree.Entries[1].IsRegular())
}

func TestTree_MissingTreeField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("recursive"))
		_, _ = w.Write([]byte(`{"sha": "abc"}`))
	}))
	defer srv.Close()

	tree, err := NewClient(WithBaseURL(srv.URL)).Tree(context.Background(), "abc", false)
	require.NoError(t, err)
	assert.Nil(t, tree.Entries)
}

func TestTree_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Tree(context.Background(), "abc", true)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.NotContains(t, se.URL, "recursive", "query must be redacted")
}

func TestTree_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tree": [`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Tree(context.Background(), "abc", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestFetchRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/jquery/info.ini" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Empty(t, r.Header.Get("Accept"))
		_, _ = w.Write([]byte("name = jQuery\n"))
	}))
	defer srv.Close()

	c := NewClient()
	data, err := c.FetchRaw(context.Background(), srv.URL+"/files/jquery/info.ini")
	require.NoError(t, err)
	assert.Equal(t, "name = jQuery\n", string(data))

	_, err = c.FetchRaw(context.Background(), srv.URL+"/files/missing/info.ini")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestToken_OnlySentToTrustedHosts(t *testing.T) {
	var apiAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer api.Close()

	var otherAuth string
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("x"))
	}))
	defer other.Close()

	c := NewClient(WithBaseURL(api.URL), WithToken("secret"))
	_, err := c.TopLevelEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", apiAuth)

	_, err = c.FetchRaw(context.Background(), other.URL+"/x")
	require.NoError(t, err)
	assert.Empty(t, otherAuth)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a", redactURL("https://example.com/a?token=x#frag"))
	assert.Equal(t, "<invalid-url>", redactURL("://bad"))
}
