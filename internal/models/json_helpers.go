package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// EncodeStrings stores a string list as a JSON array, never as null.
func EncodeStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON(`[]`)
	}
	return datatypes.JSON(payload)
}

// DecodeStrings reads a JSON array column, tolerating empty or malformed data.
func DecodeStrings(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}
