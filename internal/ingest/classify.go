package ingest

import "strings"

// DefaultMetadataFile is the per-library metadata file name.
const DefaultMetadataFile = "info.ini"

// FactKind tells what a repository path contributes to the catalog.
type FactKind int

const (
	// Ignore paths carry no catalog information.
	Ignore FactKind = iota
	// AssetRef paths are files of one version of one library.
	AssetRef
	// MetadataRef paths point at a library's metadata file.
	MetadataRef
)

func (k FactKind) String() string {
	switch k {
	case AssetRef:
		return "asset"
	case MetadataRef:
		return "metadata"
	default:
		return "ignore"
	}
}

// Fact is the classification of a single "library/version/file..." path.
type Fact struct {
	Kind         FactKind
	Library      string
	Version      string // AssetRef only
	RelativePath string // AssetRef only, path below the version directory
	SourcePath   string // MetadataRef only, the full path of the metadata file
}

// Classify turns one repository path into a Fact. metadataFile is the
// reserved file name that marks library metadata; empty means the default.
func Classify(path, metadataFile string) Fact {
	if metadataFile == "" {
		metadataFile = DefaultMetadataFile
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) < 2:
		return Fact{Kind: Ignore}
	case len(parts) == 2:
		if parts[1] == metadataFile {
			return Fact{Kind: MetadataRef, Library: parts[0], SourcePath: path}
		}
		return Fact{Kind: Ignore, Library: parts[0]}
	}

	return Fact{
		Kind:         AssetRef,
		Library:      parts[0],
		Version:      parts[1],
		RelativePath: strings.Join(parts[2:], "/"),
	}
}
