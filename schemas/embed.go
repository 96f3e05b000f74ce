// Package schemas embeds the JSON Schemas for analysis payloads returned by the
// backend.
package schemas

import "embed"

// Schema file names.
const (
	ConnectionsEnhanced = "connections_enhanced.schema.json"
	ConnectionsLegacy   = "connections_legacy.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the named schema document.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// MustRead is Read for names known to be embedded.
func MustRead(name string) []byte {
	data, err := Read(name)
	if err != nil {
		panic(err)
	}
	return data
}

// Names lists the embedded schema files.
func Names() []string {
	entries, _ := files.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
