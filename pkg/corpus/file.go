package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("corpus.schema.json", schemaJSON)

// Validate checks a raw corpus document against the corpus JSON schema.
func Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to json.Unmarshal: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid corpus: %w", err)
	}
	return nil
}

// Decode validates and decodes a corpus document.
func Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to io.ReadAll: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to json.Unmarshal: %w", err)
	}
	return entries, nil
}

// Encode writes entries as a JSON array indented with four spaces.
func Encode(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to json.Encoder.Encode: %w", err)
	}
	return nil
}

// Load reads the corpus file at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to os.Open: %w", err)
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return entries, nil
}

// Save replaces the corpus file at path with entries.
func Save(path string, entries []Entry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to os.WriteFile: %w", err)
	}
	return nil
}
