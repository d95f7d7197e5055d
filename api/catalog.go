package api

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// Library is the published catalog record for one library.
// It is the shape consumers of the catalog JSON read.
type Library struct {
	// Name is the published name. Defaults to the library directory and
	// can be replaced by a "name" key in the library's metadata file.
	Name string `json:"name"`
	// Versions lists every discovered version, most recent first.
	Versions []string `json:"versions"`
	// LastVersion is Versions[0], or empty when no versions were found.
	LastVersion string `json:"lastversion"`
	// Assets holds one entry per version.
	Assets []AssetGroup `json:"assets"`
	// Zip is the archive name, "<dir>.zip" unless metadata overrides it.
	Zip string `json:"zip"`
	// Metadata holds the remaining metadata keys, merged verbatim on output.
	Metadata map[string]string `json:"-"`
}

// AssetGroup lists the files of a single version.
type AssetGroup struct {
	Version string   `json:"version"`
	Files   []string `json:"files"`
}

// reservedKeys are the structural fields metadata may never replace.
var reservedKeys = map[string]bool{
	"versions":    true,
	"lastversion": true,
	"assets":      true,
}

// IsReservedKey reports whether key names a structural record field.
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Map flattens the record into the generic object written to disk.
// Metadata keys land next to the structural fields.
func (l Library) Map() map[string]any {
	m := make(map[string]any, 5+len(l.Metadata))
	for k, v := range l.Metadata {
		if reservedKeys[k] {
			continue
		}
		m[k] = v
	}

	versions := make([]any, len(l.Versions))
	for i, v := range l.Versions {
		versions[i] = v
	}

	assets := make([]any, len(l.Assets))
	for i, a := range l.Assets {
		files := make([]any, len(a.Files))
		for j, f := range a.Files {
			files[j] = f
		}
		assets[i] = map[string]any{
			"version": a.Version,
			"files":   files,
		}
	}

	m["name"] = l.Name
	m["versions"] = versions
	m["lastversion"] = l.LastVersion
	m["assets"] = assets
	m["zip"] = l.Zip
	return m
}

// Encode serializes the catalog as a JSON array with object keys sorted,
// so identical listings produce identical bytes.
func Encode(libs []Library) ([]byte, error) {
	out := make([]any, len(libs))
	for i := range libs {
		out[i] = libs[i].Map()
	}
	data, err := oj.Marshal(out, &oj.Options{Sort: true})
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}
