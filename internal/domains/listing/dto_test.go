package listing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListingRequestValidate(t *testing.T) {
	var ok CreateListingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"BMW E46 Coilovers","price":250,"category":"part"}`), &ok))
	assert.NoError(t, ok.Validate())

	bad := map[string]string{
		"missing title":    `{"price":1}`,
		"blank title":      `{"title":"   ","price":1}`,
		"missing price":    `{"title":"x"}`,
		"negative price":   `{"title":"x","price":-1}`,
		"unknown category": `{"title":"x","price":1,"category":"boat"}`,
		"bad currency":     `{"title":"x","price":1,"currency":"pounds"}`,
		"negative mileage": `{"title":"x","price":1,"mileage":-5}`,
		"empty image":      `{"title":"x","price":1,"images":[""]}`,
	}
	for name, body := range bad {
		var req CreateListingRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), name)
		assert.Error(t, req.Validate(), name)
	}
}

func TestCreateListingRequestIgnoresOwnerFields(t *testing.T) {
	var req CreateListingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","price":0,"owner":"evil","seller":"evil","ownerId":"evil"}`), &req))
	require.NoError(t, req.Validate())

	l := req.ToListing("me")
	assert.Equal(t, "me", l.OwnerID)
	assert.Equal(t, CategoryCar, l.Category)
	assert.Equal(t, DefaultCurrency, l.Currency)
	assert.True(t, l.Active)
	assert.NotNil(t, l.Images)
}

func TestUpdateListingRequestValidate(t *testing.T) {
	var req UpdateListingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"price":99.5}`), &req))
	assert.NoError(t, req.Validate())
	assert.False(t, req.IsEmpty())

	require.NoError(t, json.Unmarshal([]byte(`{"title":""}`), &req))
	assert.Error(t, req.Validate())

	assert.True(t, UpdateListingRequest{}.IsEmpty())
}

func TestUpdateListingRequestRejectsBlankEnums(t *testing.T) {
	for _, body := range []string{
		`{"category":""}`,
		`{"currency":""}`,
		`{"category":"boat"}`,
		`{"currency":"gbp"}`,
	} {
		var req UpdateListingRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		assert.Error(t, req.Validate(), body)
	}

	var req UpdateListingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"category":"part","currency":"EUR"}`), &req))
	assert.NoError(t, req.Validate())
}

func TestListingPriceMarshalsAsNumber(t *testing.T) {
	var req CreateListingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","price":250}`), &req))
	out, err := json.Marshal(req.ToListing("me"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":250`)
}
