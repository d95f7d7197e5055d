// Package metadata parses per-library metadata files.
package metadata

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// INIParser reads info.ini style files into flat key/value pairs.
// Keys of the default section keep their name; keys of a named section
// become "section.key".
type INIParser struct{}

// NewINIParser returns a parser for library metadata files.
func NewINIParser() *INIParser {
	return &INIParser{}
}

// Parse decodes data. An empty file yields an empty map.
func (p *INIParser) Parse(data []byte) (map[string]string, error) {
	// Comment markers only count after a space, so URLs keep their fragments.
	f, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}

	out := make(map[string]string)
	for _, section := range f.Sections() {
		prefix := ""
		if section.Name() != ini.DefaultSection {
			prefix = section.Name() + "."
		}
		for _, key := range section.Keys() {
			out[prefix+key.Name()] = key.String()
		}
	}
	return out, nil
}
