// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package vlanrouter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts either a JSON number (a specific id) or the
// literal string "all" (§6 DELETE body: `{"address_id":N|"all"}`).
func (t *DeleteTarget) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.Trim(data, `"`), []byte("all")) && bytes.HasPrefix(data, []byte(`"`)) {
		t.All = true
		return nil
	}
	var id uint32
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("vlanrouter: id must be a number or \"all\": %w", err)
	}
	t.ID = id
	return nil
}

// MarshalJSON mirrors UnmarshalJSON for round-tripping in tests.
func (t DeleteTarget) MarshalJSON() ([]byte, error) {
	if t.All {
		return []byte(`"all"`), nil
	}
	return json.Marshal(t.ID)
}
