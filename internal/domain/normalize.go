package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Skip reasons recorded for entries that are not storms.
const (
	SkipNull          = "null value"
	SkipNotObject     = "not an object"
	SkipInvalidObject = "invalid object"
	SkipMissingID     = "missing id"
	SkipUpstreamError = "upstream load error"
	SkipDuplicateID   = "duplicate id"
)

// SkippedEntry records why a raw entry did not become a Storm.
type SkippedEntry struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// NormalizeResult is the ordered storm list plus every skipped entry.
type NormalizeResult struct {
	Storms  []Storm
	Skipped []SkippedEntry
}

// Normalizer turns raw storm feed entries into canonical Storms.
type Normalizer struct {
	imageBaseURL string
}

// NewNormalizer creates a Normalizer whose image references point at imageBaseURL.
func NewNormalizer(imageBaseURL string) *Normalizer {
	return &Normalizer{imageBaseURL: strings.TrimRight(imageBaseURL, "/")}
}

// Normalize decodes entries in order, skipping anything that is not a storm.
// date stamps each storm's image reference. It never fails: an input with no
// storm-shaped entries yields an empty Storms slice.
func (n *Normalizer) Normalize(entries []RawEntry, date DateKey) NormalizeResult {
	res := NormalizeResult{Storms: make([]Storm, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		storm, reason := decodeStorm(e.Value)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedEntry{Key: e.Key, Reason: reason})
			continue
		}
		if _, dup := seen[storm.ID]; dup {
			res.Skipped = append(res.Skipped, SkippedEntry{Key: e.Key, Reason: SkipDuplicateID})
			continue
		}
		seen[storm.ID] = struct{}{}
		storm.ImageRef = n.ImageRef(storm.ID, date)
		res.Storms = append(res.Storms, storm)
	}
	return res
}

// ImageRef builds the cache-busted map image URL for a storm. The cache key
// is the snapshot date, or the current time in milliseconds without one.
func (n *Normalizer) ImageRef(stormID string, date DateKey) string {
	key := string(date)
	if key == "" {
		key = strconv.FormatInt(clock.Now().UnixMilli(), 10)
	}
	return fmt.Sprintf("%s/api/maps/%s?v=%s", n.imageBaseURL, url.PathEscape(stormID), url.QueryEscape(key))
}

// DeriveCategory maps the most recent storm type code to a category.
func DeriveCategory(history []string) int {
	if len(history) == 0 {
		return 1
	}
	switch history[len(history)-1] {
	case "HU":
		return 3
	case "TS":
		return 2
	default:
		return 1
	}
}

// decodeStorm returns the decoded storm, or a non-empty skip reason.
func decodeStorm(raw json.RawMessage) (Storm, string) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || isJSONNull(raw):
		return Storm{}, SkipNull
	case raw[0] != '{':
		return Storm{}, SkipNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Storm{}, SkipInvalidObject
	}

	id := identifier(fields["id"])
	if id == "" {
		if _, ok := fields["error"]; ok {
			return Storm{}, SkipUpstreamError
		}
		return Storm{}, SkipMissingID
	}

	history := typeHistory(fields["storm_type"])
	invest := truthy(fields["invest"])
	status := StatusActive
	if invest {
		status = StatusWatch
	}

	return Storm{
		ID:                           id,
		Name:                         text(fields["name"]),
		Category:                     DeriveCategory(history),
		WindSpeed:                    number(fields["max_wind"]),
		Pressure:                     number(fields["min_pressure"]),
		Basin:                        Basin(text(fields["basin"])),
		Year:                         integer(fields["year"]),
		Season:                       integer(fields["season"]),
		ACE:                          number(fields["ace"]),
		IsInvestigationalDisturbance: invest,
		StormTypeHistory:             history,
		Status:                       status,
	}, ""
}

// identifier accepts a non-blank string or a non-zero number.
func identifier(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil && f != 0 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func text(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// number reads a JSON number or numeric string; anything else is 0.
func number(raw json.RawMessage) float64 {
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return finite(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return finite(v)
		}
	}
	return 0
}

func integer(raw json.RawMessage) int {
	return int(math.Round(number(raw)))
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// truthy follows loose feed semantics: true, non-zero numbers, non-empty
// strings, objects and arrays all count.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isJSONNull(raw) {
		return false
	}
	switch raw[0] {
	case '{', '[':
		return true
	case 't':
		return true
	case 'f':
		return false
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	}
	var f float64
	return json.Unmarshal(raw, &f) == nil && f != 0
}

// typeHistory decodes storm_type. A missing or non-array value is an empty
// history; non-string elements become empty codes.
func typeHistory(raw json.RawMessage) []string {
	var elems []json.RawMessage
	if json.Unmarshal(raw, &elems) != nil {
		return []string{}
	}
	history := make([]string, len(elems))
	for i, el := range elems {
		var code string
		if json.Unmarshal(el, &code) == nil {
			history[i] = strings.TrimSpace(code)
		}
	}
	return history
}
