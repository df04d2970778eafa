package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// RawRecord is a corpus entry decoded without a schema, for validation of
// files that may not match ServiceRecord.
type RawRecord = map[string]any

// LoadCorpus reads a corpus file into typed records.
func LoadCorpus(path string) ([]ServiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var records []ServiceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	for i := range records {
		if records[i].Requirements == nil {
			records[i].Requirements = []string{}
		}
	}
	return records, nil
}

// LoadRawCorpus reads a corpus file without a schema. The top level must be
// an array; its elements are returned as-is (they may not be objects).
func LoadRawCorpus(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	items, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("parse corpus %s: top level must be an array, got %T", path, top)
	}
	return items, nil
}

// SaveCorpus writes records as an indented JSON array. Non-ASCII text and
// HTML characters are written unescaped. Nil lists are written as empty
// arrays, never null.
func SaveCorpus(path string, records []ServiceRecord) error {
	out := make([]ServiceRecord, len(records))
	for i, r := range records {
		if r.Requirements == nil {
			r.Requirements = []string{}
		}
		if r.QAPairs == nil {
			r.QAPairs = []QAPair{}
		}
		out[i] = r
	}
	records = out

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	return nil
}
