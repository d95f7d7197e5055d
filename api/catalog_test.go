package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_MapMergesMetadata(t *testing.T) {
	lib := Library{
		Name:        "jQuery",
		Versions:    []string{"3.6.0"},
		LastVersion: "3.6.0",
		Assets:      []AssetGroup{{Version: "3.6.0", Files: []string{"dist/jquery.js"}}},
		Zip:         "jquery.zip",
		Metadata: map[string]string{
			"author":   "jquery",
			"versions": "bogus",
		},
	}

	m := lib.Map()
	assert.Equal(t, "jQuery", m["name"])
	assert.Equal(t, "jquery", m["author"])
	assert.Equal(t, "jquery.zip", m["zip"])
	assert.Equal(t, []any{"3.6.0"}, m["versions"], "metadata must not replace structural fields")
}

func TestEncode_SortedKeysRoundTrip(t *testing.T) {
	libs := []Library{
		{
			Name:        "a",
			Versions:    []string{"2.0.0", "1.0.0"},
			LastVersion: "2.0.0",
			Assets: []AssetGroup{
				{Version: "2.0.0", Files: []string{"a.js"}},
				{Version: "1.0.0", Files: []string{"a.js", "a.min.js"}},
			},
			Zip:      "a.zip",
			Metadata: map[string]string{"homepage": "https://example.com"},
		},
	}

	data, err := Encode(libs)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0]["name"])
	assert.Equal(t, "2.0.0", got[0]["lastversion"])
	assert.Equal(t, "https://example.com", got[0]["homepage"])
	assert.Len(t, got[0]["assets"], 2)

	again, err := Encode(libs)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestEncode_EmptyCatalog(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
