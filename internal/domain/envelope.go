package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawEntry is one keyed value of the storm feed's "data" object, still undecoded.
type RawEntry struct {
	Key   string
	Value json.RawMessage
}

// StormEnvelope is the decoded storms-by-date response.
type StormEnvelope struct {
	Date       string
	Directory  string
	TotalFiles int
	Entries    []RawEntry
}

// ParseStormEnvelope decodes a storms-by-date response body. An empty body,
// a JSON null, or a missing/null "data" key yields an envelope with no
// entries. A body that is not a JSON object, or a "data" value that is not
// an object, is a *MalformedInputError.
func ParseStormEnvelope(body []byte) (StormEnvelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || isJSONNull(body) {
		return StormEnvelope{}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return StormEnvelope{}, &MalformedInputError{Reason: "storm envelope", Err: err}
	}

	var env StormEnvelope
	decodeLenient(top["date"], &env.Date)
	decodeLenient(top["directory"], &env.Directory)
	decodeLenient(top["total_files"], &env.TotalFiles)

	data := bytes.TrimSpace(top["data"])
	if len(data) == 0 || isJSONNull(data) {
		return env, nil
	}
	entries, err := decodeOrderedObject(data)
	if err != nil {
		return StormEnvelope{}, &MalformedInputError{Reason: "storm envelope data", Err: err}
	}
	env.Entries = entries
	return env, nil
}

// decodeOrderedObject splits a JSON object into its members in document order.
func decodeOrderedObject(raw []byte) ([]RawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	var entries []RawEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		entries = append(entries, RawEntry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func isJSONNull(raw []byte) bool {
	return string(raw) == "null"
}

// decodeLenient unmarshals raw into v and ignores type mismatches.
func decodeLenient(raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
