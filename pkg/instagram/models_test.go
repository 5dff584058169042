package instagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsResponseToPage(t *testing.T) {
	resp := &SectionsResponse{
		Sections: []Section{
			{LayoutContent: LayoutContent{Medias: []MediaWrapper{
				{Media: Media{ID: "1"}},
				{Media: Media{ID: "2"}},
			}}},
			{LayoutContent: LayoutContent{Medias: []MediaWrapper{
				{Media: Media{ID: "3"}},
			}}},
		},
		MoreAvailable: true,
		NextMaxID:     "cursor-1",
		MediaCount:    1234,
	}

	page := resp.ToPage()
	require.Len(t, page.Items, 3)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, "3", page.Items[2].ID)
	assert.Equal(t, "cursor-1", page.NextCursor)
	assert.Equal(t, 1234, page.TotalHint)
}

func TestSectionsResponseToPageLastPage(t *testing.T) {
	resp := &SectionsResponse{
		Sections:      []Section{},
		MoreAvailable: false,
		NextMaxID:     "stale-cursor",
	}

	page := resp.ToPage()
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor, "a cursor without more_available must be dropped")
}

func TestMediaDecoding(t *testing.T) {
	raw := `{
		"id": "321_111",
		"code": "Cx1y2",
		"taken_at": 1700000000,
		"media_type": 8,
		"like_count": 10,
		"comment_count": 2,
		"caption": {"text": "golden hour #sunset"},
		"user": {"pk": 111, "username": "alice", "is_verified": true},
		"image_versions2": {"candidates": [{"url": "https://cdn/img.jpg", "width": 1080, "height": 1080}]},
		"carousel_media": [{"id": "321_112"}]
	}`

	var media Media
	require.NoError(t, json.Unmarshal([]byte(raw), &media))

	assert.Equal(t, "321_111", media.ID)
	assert.Equal(t, int64(1700000000), media.TakenAt)
	assert.Equal(t, "golden hour #sunset", media.Caption.Text)
	assert.Equal(t, "alice", media.User.Username)
	require.NotNil(t, media.ImageVersions)
	assert.Equal(t, "https://cdn/img.jpg", media.ImageVersions.Candidates[0].URL)
	assert.Len(t, media.CarouselMedia, 1)
	assert.Nil(t, media.Location)
}
