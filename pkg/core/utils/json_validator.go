// Package utils holds the tolerant-parsing helpers the pipeline applies to
// LLM output before anything downstream trusts it: JSON repair, HJSON
// fallback and markdown hygiene.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common JSON errors in model responses:
// missing quotes around keys, single quotes, unclosed arrays/objects,
// TRUE/FALSE/Null casing, trailing commas, comments, stray markdown.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// MustRepairJSON is RepairJSON with an empty-object fallback, for paths
// that need a guaranteed JSON string.
func MustRepairJSON(malformedJSON string) string {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "{}"
	}
	return repaired
}

// ParseHJSON parses human-friendly JSON (comments, unquoted keys, optional
// commas, multiline strings) and returns strict JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// ParseHJSONToStruct parses HJSON directly into a Go value. Preferred when
// the schema is known.
func ParseHJSONToStruct(hjsonData string, schema interface{}) error {
	if err := hjson.Unmarshal([]byte(hjsonData), schema); err != nil {
		return fmt.Errorf("HJSON_UNMARSHAL_ERROR: %v", err)
	}
	return nil
}

// SmartParse tries strategies from strictest to most lenient — standard
// JSON, repaired JSON, HJSON — and unmarshals the first success into
// schema, returning the normalized JSON string that parsed. Every LLM
// categorization response goes through here (fences stripped first, see
// CleanMarkdown).
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	if lenient, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(lenient), schema); err == nil {
			return lenient, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed")
}
