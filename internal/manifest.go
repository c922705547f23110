package internal

import (
	"bytes"
	"encoding/json"
)

// Manifest lists all embedded data files.
// The order of records reflects the order of DataFile segments in front of the manifest.
// The manifest is embedded as a bracket-delimited list, one record per line.
type Manifest []Record

// Record describes a single embedded data file.
type Record struct {
	Destination string `json:"destination"` // Path the runtime restores the file to
	Size        int64  `json:"size"`        // Content size in bytes
	Original    string `json:"original"`    // Source path at bundle time
}

// Marshal returns the manifest body.
func (m Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		rec, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(rec)
	}
	buf.WriteString("\n]")
	return buf.Bytes(), nil
}

// ParseManifest decodes a manifest body.
func ParseManifest(body []byte) (Manifest, error) {
	m := Manifest{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}
