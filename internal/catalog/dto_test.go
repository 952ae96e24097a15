// AngelaMos | 2026
// dto_test.go

package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeImageURL(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/sword.PNG":             true,
		"https://cdn.example.com/a.webp?v=2":            true,
		"https://cdn.example.com/img?format=.avif":      true,
		"https://cdn.example.com/download":              false,
		"https://cdn.example.com/file.pdf":              false,
		"":                                              false,
		"https://cdn.example.com/pictures.jpeg/resolve": true,
	}
	for url, want := range cases {
		assert.Equal(t, want, LooksLikeImageURL(url), url)
	}
}

func decodeProductRequest(t *testing.T, body string) ProductRequest {
	t.Helper()
	var req ProductRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestProductRequestAcceptsStringsAndNumbers(t *testing.T) {
	in, fields := decodeProductRequest(t,
		`{"name":" VIP Rank ","price":"499.50","stock":"12","image_url":"https://x.test/vip.png","category_id":""}`,
	).Validate()
	require.Nil(t, fields)
	assert.Equal(t, "VIP Rank", in.Name)
	assert.Equal(t, 499.5, in.Price)
	assert.Equal(t, 12, in.Stock)
	assert.Nil(t, in.CategoryID)
	assert.Nil(t, in.Description)

	in, fields = decodeProductRequest(t, `{"name":"Key","price":20,"stock":3.9}`).Validate()
	require.Nil(t, fields)
	assert.Equal(t, 3, in.Stock)
}

func TestProductRequestCollectsEveryProblem(t *testing.T) {
	_, fields := decodeProductRequest(t,
		`{"name":"  ","price":"abc","stock":"-1","image_url":"https://x.test/download"}`,
	).Validate()

	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Price must be a number", fields["price"])
	assert.Equal(t, "Stock cannot be negative", fields["stock"])
	assert.Equal(t, InvalidImageURLMessage, fields["image_url"])
}

func TestCategoryRequestRequiresName(t *testing.T) {
	_, fields := CategoryRequest{Name: " "}.Validate()
	assert.Equal(t, "Name is required", fields["name"])

	in, fields := CategoryRequest{Name: "Ranks", Description: "Server ranks"}.Validate()
	require.Nil(t, fields)
	require.NotNil(t, in.Description)
	assert.Equal(t, "Server ranks", *in.Description)
}
