package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-research/libcat/internal/config"
	"github.com/agentic-research/libcat/internal/logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"versions", "1.9.1", "2.0.0", "1.10.0"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "2.0.0\n1.10.0\n1.9.1\n", out.String())
}

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/cdn/contents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		_, _ = w.Write([]byte(`[{"name":"files","path":"files","sha":"root","type":"dir"}]`))
	})
	mux.HandleFunc("/repos/acme/cdn/git/trees/root", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"root","tree":[{"path":"underscore","mode":"040000","type":"tree","sha":"u"}]}`))
	})
	mux.HandleFunc("/repos/acme/cdn/git/trees/u", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"u","tree":[
			{"path":"1.4.4/underscore-min.js","mode":"100644","type":"blob","sha":"a"},
			{"path":"1.5.2/underscore-min.js","mode":"100644","type":"blob","sha":"b"},
			{"path":"meta.ini","mode":"100644","type":"blob","sha":"c"}
		]}`))
	})
	mux.HandleFunc("/acme/cdn/main/files/underscore/meta.ini", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("author = Jeremy Ashkenas\nzip = underscore-all.zip\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srvURL string) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("output", t.TempDir())
	v.Set("target", "cdn")
	v.Set("metadata_file", "meta.ini")
	v.Set("github.owner", "acme")
	v.Set("github.repo", "cdn")
	v.Set("github.ref", "main")
	v.Set("github.api_url", srvURL)
	v.Set("github.raw_url", srvURL)
	v.Set("snapshot.sqlite", filepath.Join(t.TempDir(), "cdn.db"))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestNewController_EndToEnd(t *testing.T) {
	srv := fakeGitHub(t)
	cfg := testConfig(t, srv.URL)

	ctrl, err := newController(cfg, logging.Discard())
	require.NoError(t, err)

	sum, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Libraries)
	assert.Equal(t, 2, sum.Versions)

	data, err := os.ReadFile(filepath.Join(cfg.Output, "cdn.json"))
	require.NoError(t, err)
	assert.Equal(t,
		`[{"assets":[{"files":["underscore-min.js"],"version":"1.5.2"},{"files":["underscore-min.js"],"version":"1.4.4"}],`+
			`"author":"Jeremy Ashkenas","lastversion":"1.5.2","name":"underscore","versions":["1.5.2","1.4.4"],"zip":"underscore-all.zip"}]`,
		string(data))

	_, err = os.Stat(cfg.Snapshot.SQLite)
	assert.NoError(t, err)
}

func TestNewController_S3WithoutCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	srv := fakeGitHub(t)
	cfg := testConfig(t, srv.URL)
	cfg.Output = "s3+https://s3.example.com/bucket/catalogs"

	_, err := newController(cfg, logging.Discard())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "AWS_ACCESS_KEY_ID"), err.Error())
}
