package web

import (
	"testing"

	"github.com/tidwall/gjson"
)

// gjsonString reads path from a JSON body, failing on invalid JSON.
func gjsonString(t *testing.T, body []byte, path string) string {
	t.Helper()
	if !gjson.ValidBytes(body) {
		t.Fatalf("body is not JSON: %s", body)
	}
	return gjson.GetBytes(body, path).String()
}
