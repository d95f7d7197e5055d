package catalog

import "fmt"

// MetadataFetchError means a library's metadata file could not be downloaded.
type MetadataFetchError struct {
	Library string
	URL     string
	Err     error
}

func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("fetching metadata for %s from %s: %v", e.Library, e.URL, e.Err)
}

func (e *MetadataFetchError) Unwrap() error {
	return e.Err
}

// MetadataParseError means a library's metadata file was not valid INI.
type MetadataParseError struct {
	Library string
	Path    string
	Err     error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("parsing metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataParseError) Unwrap() error {
	return e.Err
}
