package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestINIParser_Flat(t *testing.T) {
	data := []byte(`author = "jQuery Foundation"
github = https://github.com/jquery/jquery
homepage = http://jquery.com/#download
description = jQuery is a fast and concise JavaScript Library ; trailing comment
mainfile = jquery.min.js
name = jQuery
`)
	got, err := NewINIParser().Parse(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"author":      "jQuery Foundation",
		"github":      "https://github.com/jquery/jquery",
		"homepage":    "http://jquery.com/#download",
		"description": "jQuery is a fast and concise JavaScript Library",
		"mainfile":    "jquery.min.js",
		"name":        "jQuery",
	}, got)
}

func TestINIParser_Sections(t *testing.T) {
	data := []byte(`name = lib

[repo]
url = https://example.com/lib.git
`)
	got, err := NewINIParser().Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "lib", got["name"])
	assert.Equal(t, "https://example.com/lib.git", got["repo.url"])
}

func TestINIParser_Empty(t *testing.T) {
	got, err := NewINIParser().Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestINIParser_Malformed(t *testing.T) {
	_, err := NewINIParser().Parse([]byte("[unterminated\nkey = value\n"))
	require.Error(t, err)
}
