// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package githubapi

import (
	"strings"
	"time"
)

// apiTime is a time.Time that tolerates the shapes GitHub actually sends:
// RFC 3339 strings, null, and the occasional empty string on brand-new
// repositories. Anything unparseable decodes as the zero time instead of
// failing the whole payload.
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}
