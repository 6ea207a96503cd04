package adminapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageDecodesWellFormedBody(t *testing.T) {
	var page Page[Deal]
	body := `{"content":[{"id":"d1","status":"PENDING","price":350000}],"totalElements":41,"totalPages":3,"size":20,"number":1}`
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "d1", page.Content[0].ID)
	assert.Equal(t, 350000.0, page.Content[0].Price)
	assert.Equal(t, 41, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Number)
}

func TestPageToleratesMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"missing content":   `{"totalElements":0}`,
		"null content":      `{"content":null}`,
		"content not array": `{"content":"nope","totalPages":"x"}`,
		"not an object":     `[1,2,3]`,
		"wrong item shape":  `{"content":[1,2]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var page Page[User]
			require.NoError(t, json.Unmarshal([]byte(body), &page))
			assert.NotNil(t, page.Content)
			assert.Empty(t, page.Content)

			normalized := page.Normalize(DefaultPageSize)
			assert.Equal(t, 1, normalized.TotalPages)
			assert.Equal(t, 0, normalized.TotalElements)
		})
	}
}

func TestPageCountersAcceptNumericStrings(t *testing.T) {
	var page Page[User]
	require.NoError(t, json.Unmarshal([]byte(`{"content":[],"totalElements":"45","totalPages":"3"}`), &page))
	assert.Equal(t, 45, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPageNormalizeDerivesTotalPages(t *testing.T) {
	page := Page[User]{TotalElements: 45}
	normalized := page.Normalize(20)
	assert.Equal(t, 3, normalized.TotalPages)
	assert.Equal(t, 20, normalized.Size)
	assert.NotNil(t, normalized.Content)

	negative := Page[User]{TotalElements: -4, TotalPages: -1, Number: -2}.Normalize(20)
	assert.Equal(t, 0, negative.TotalElements)
	assert.Equal(t, 1, negative.TotalPages)
	assert.Equal(t, 0, negative.Number)
}
