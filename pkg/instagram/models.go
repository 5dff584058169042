package instagram

// PageRequest describes one logical "fetch a page of hashtag-indexed posts"
// request. The cursor is opaque; an empty cursor asks for the first page.
type PageRequest struct {
	Hashtag string
	Tab     string
	Cursor  string
}

// Page is one raw page of hashtag results: the ordered item payloads, the
// cursor for the next page (empty means no more pages) and an optional
// total-count hint. Immutable once produced.
type Page struct {
	Items      []Media
	NextCursor string
	TotalHint  int
}

// SectionsResponse is the wire shape of a hashtag sections page
type SectionsResponse struct {
	Sections      []Section `json:"sections"`
	MoreAvailable bool      `json:"more_available"`
	NextMaxID     string    `json:"next_max_id"`
	MediaCount    int       `json:"media_count"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
}

// Section is one layout block of a sections page
type Section struct {
	LayoutType    string        `json:"layout_type"`
	LayoutContent LayoutContent `json:"layout_content"`
}

// LayoutContent wraps the media items of a section
type LayoutContent struct {
	Medias []MediaWrapper `json:"medias"`
}

// MediaWrapper wraps a single media item
type MediaWrapper struct {
	Media Media `json:"media"`
}

// Media is the raw payload of one post
type Media struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	TakenAt           int64          `json:"taken_at"`
	MediaType         int            `json:"media_type"`
	LikeCount         int            `json:"like_count"`
	CommentCount      int            `json:"comment_count"`
	IsPaidPartnership bool           `json:"is_paid_partnership"`
	Caption           *Caption       `json:"caption"`
	User              MediaUser      `json:"user"`
	Location          *MediaLocation `json:"location"`
	ImageVersions     *ImageVersions `json:"image_versions2"`
	VideoVersions     []VideoVersion `json:"video_versions"`
	CarouselMedia     []Media        `json:"carousel_media"`
}

// Caption is the post caption payload
type Caption struct {
	Text string `json:"text"`
}

// MediaUser is the post author payload
type MediaUser struct {
	PK         int64  `json:"pk"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	IsVerified bool   `json:"is_verified"`
}

// MediaLocation is the optional post location payload
type MediaLocation struct {
	PK      int64   `json:"pk"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
}

// ImageVersions holds the candidate image renditions
type ImageVersions struct {
	Candidates []ImageCandidate `json:"candidates"`
}

// ImageCandidate is one image rendition
type ImageCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// VideoVersion is one video rendition
type VideoVersion struct {
	URL string `json:"url"`
}

// HashtagInfoResponse is the wire shape of hashtag metadata
type HashtagInfoResponse struct {
	Data   HashtagInfo `json:"data"`
	Status string      `json:"status"`
}

// HashtagInfo is the hashtag metadata payload
type HashtagInfo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	MediaCount    int    `json:"media_count"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// LoginResponse is the wire shape of the login handshake result
type LoginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	User              bool   `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	CheckpointURL     string `json:"checkpoint_url"`
}

// CurrentUserResponse is the wire shape of the session probe result
type CurrentUserResponse struct {
	Status string `json:"status"`
	User   struct {
		PK       int64  `json:"pk"`
		Username string `json:"username"`
	} `json:"user"`
}

// TimelineResponse is the wire shape of one timeline feed page, used by the
// warm-up browsing behavior
type TimelineResponse struct {
	NumResults    int        `json:"num_results"`
	MoreAvailable bool       `json:"more_available"`
	FeedItems     []FeedItem `json:"feed_items"`
	Status        string     `json:"status"`
}

// FeedItem wraps one timeline entry
type FeedItem struct {
	MediaOrAd *Media `json:"media_or_ad"`
}

// apiStatus is the minimal envelope every JSON endpoint shares
type apiStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ToPage flattens a sections response into a raw Page
func (r *SectionsResponse) ToPage() *Page {
	var items []Media
	for _, section := range r.Sections {
		for _, wrapper := range section.LayoutContent.Medias {
			items = append(items, wrapper.Media)
		}
	}

	cursor := ""
	if r.MoreAvailable {
		cursor = r.NextMaxID
	}

	return &Page{
		Items:      items,
		NextCursor: cursor,
		TotalHint:  r.MediaCount,
	}
}
