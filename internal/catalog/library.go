package catalog

import (
	"slices"

	"github.com/agentic-research/libcat/api"
	"github.com/agentic-research/libcat/internal/version"
)

// Library is the aggregate record of one library directory.
type Library struct {
	Name        string              // directory name, unique per run
	Versions    []string            // deduplicated, discovery order until sorted
	Assets      map[string][]string // version -> relative file paths, discovery order
	Metadata    map[string]string   // nil until a metadata file was merged
	Zip         string              // archive name, "<name>.zip" unless overridden
	LastVersion string              // Versions[0] once sorted
}

func newLibrary(name string) *Library {
	return &Library{
		Name:   name,
		Assets: make(map[string][]string),
		Zip:    name + ".zip",
	}
}

// addAsset records one file of one version.
func (l *Library) addAsset(ver, relPath string) {
	if _, ok := l.Assets[ver]; !ok {
		l.Versions = append(l.Versions, ver)
		l.Assets[ver] = nil
	}
	l.Assets[ver] = append(l.Assets[ver], relPath)
}

// SortVersions orders Versions most recent first and sets LastVersion.
func (l *Library) SortVersions() {
	l.Versions = version.SortDescending(l.Versions)
	l.LastVersion = ""
	if len(l.Versions) > 0 {
		l.LastVersion = l.Versions[0]
	}
}

// DisplayName is the published name: the metadata "name" when present,
// the directory name otherwise.
func (l *Library) DisplayName() string {
	if n, ok := l.Metadata["name"]; ok {
		return n
	}
	return l.Name
}

// AssetList returns one {version, files} pair per version, in the order
// of Versions.
func (l *Library) AssetList() []api.AssetGroup {
	out := make([]api.AssetGroup, 0, len(l.Versions))
	for _, v := range l.Versions {
		out = append(out, api.AssetGroup{Version: v, Files: slices.Clone(l.Assets[v])})
	}
	return out
}

// Record converts the library into its published shape.
func (l *Library) Record() api.Library {
	var meta map[string]string
	if len(l.Metadata) > 0 {
		meta = make(map[string]string, len(l.Metadata))
		for k, v := range l.Metadata {
			if k == "name" {
				continue
			}
			meta[k] = v
		}
	}
	return api.Library{
		Name:        l.DisplayName(),
		Versions:    slices.Clone(l.Versions),
		LastVersion: l.LastVersion,
		Assets:      l.AssetList(),
		Zip:         l.Zip,
		Metadata:    meta,
	}
}

// Records converts a library set into published records.
func Records(libs []*Library) []api.Library {
	out := make([]api.Library, len(libs))
	for i, l := range libs {
		out[i] = l.Record()
	}
	return out
}
