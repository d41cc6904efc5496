package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	action, err := ParseAction("read")
	require.NoError(t, err)
	assert.Equal(t, ActionRead, action)

	action, err = ParseAction("write")
	require.NoError(t, err)
	assert.Equal(t, ActionWrite, action)

	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, ErrBadAction)
	_, err = ParseAction("")
	assert.ErrorIs(t, err, ErrBadAction)
}

func TestParseResourceID(t *testing.T) {
	tokenID, slug, err := ParseResourceID("t42/ancestor-archive")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), tokenID)
	assert.Equal(t, "ancestor-archive", slug)

	tests := []string{
		"",
		"42/archive",
		"t/archive",
		"t42",
		"t42/",
		"tx42/archive",
		"t-1/archive",
	}
	for _, id := range tests {
		_, _, err := ParseResourceID(id)
		assert.ErrorIs(t, err, ErrBadResourceID, "id=%q", id)
	}
}

func TestSignedMessage(t *testing.T) {
	request := &AccessRequest{
		ResourceID: "t42/archive",
		TokenID:    42,
		Action:     ActionRead,
		Timestamp:  1700000000,
	}
	assert.Equal(t, "t42/archive:read:42:1700000000", string(request.SignedMessage()))
}

func TestStorageKeyLayout(t *testing.T) {
	assert.Equal(t, "resources/t42/archive/", ResourcePrefix("t42/archive"))
	assert.Equal(t, "resources/t42/archive/manifest.json", ManifestKey("t42/archive"))
	assert.Equal(t, "resources/t42/archive/report.json", ReportKey("t42/archive"))
	assert.Equal(t, "resources/t42/archive/objects/", ObjectsPrefix("t42/archive"))
	assert.Equal(t, "resources/t42/archive/objects/a/b.txt", ObjectStorageKey("t42/archive", "a/b.txt"))
	assert.Equal(t, "a/b.txt", ObjectKeyFromStorage("t42/archive", "resources/t42/archive/objects/a/b.txt"))
}
