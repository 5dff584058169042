package models

import (
	"regexp"
	"strconv"
	"time"

	"tagscraper/pkg/instagram"
)

// UserInfo is the author of a scraped post
type UserInfo struct {
	PK         string `json:"pk"`
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	IsPrivate  bool   `json:"is_private"`
	IsVerified bool   `json:"is_verified"`
}

// LocationInfo is the optional tagged location of a post
type LocationInfo struct {
	PK      string  `json:"pk,omitempty"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
}

// Post is one scraped post record
type Post struct {
	PostID            string        `json:"post_id"`
	Shortcode         string        `json:"shortcode"`
	CaptionText       string        `json:"caption_text,omitempty"`
	LikeCount         int           `json:"like_count"`
	CommentCount      int           `json:"comment_count"`
	TakenAt           time.Time     `json:"taken_at"`
	MediaURL          string        `json:"media_url,omitempty"`
	MediaURLs         []string      `json:"media_urls"`
	User              UserInfo      `json:"user"`
	Location          *LocationInfo `json:"location,omitempty"`
	Hashtags          []string      `json:"hashtags"`
	MentionedUsers    []string      `json:"mentioned_users"`
	IsPaidPartnership bool          `json:"is_paid_partnership"`
}

// HashtagInfo is the scraped hashtag metadata
type HashtagInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MediaCount    int    `json:"media_count"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
}

// HashtagDocument is the full result of one scrape run
type HashtagDocument struct {
	Hashtag           string      `json:"hashtag"`
	HashtagInfo       HashtagInfo `json:"hashtag_info"`
	ScrapedAt         time.Time   `json:"scraped_at"`
	TotalPostsScraped int         `json:"total_posts_scraped"`
	RecentPosts       []Post      `json:"recent_posts"`
	TopPosts          []Post      `json:"top_posts"`
}

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@(\w+)`)
)

// ExtractHashtags returns the hashtags mentioned in a caption
func ExtractHashtags(text string) []string {
	return extractGroups(hashtagPattern, text)
}

// ExtractMentions returns the usernames mentioned in a caption
func ExtractMentions(text string) []string {
	return extractGroups(mentionPattern, text)
}

func extractGroups(pattern *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, groups := range pattern.FindAllStringSubmatch(text, -1) {
		out = append(out, groups[1])
	}
	return out
}

// FromMedia maps a raw media payload into a Post record
func FromMedia(media *instagram.Media) Post {
	caption := ""
	if media.Caption != nil {
		caption = media.Caption.Text
	}

	post := Post{
		PostID:            media.ID,
		Shortcode:         media.Code,
		CaptionText:       caption,
		LikeCount:         media.LikeCount,
		CommentCount:      media.CommentCount,
		TakenAt:           time.Unix(media.TakenAt, 0).UTC(),
		MediaURLs:         mediaURLs(media),
		User:              fromMediaUser(media.User),
		Hashtags:          ExtractHashtags(caption),
		MentionedUsers:    ExtractMentions(caption),
		IsPaidPartnership: media.IsPaidPartnership,
	}

	if len(post.MediaURLs) > 0 {
		post.MediaURL = post.MediaURLs[0]
	}

	if media.Location != nil {
		post.Location = &LocationInfo{
			PK:      strconv.FormatInt(media.Location.PK, 10),
			Name:    media.Location.Name,
			Address: media.Location.Address,
			City:    media.Location.City,
			Lng:     media.Location.Lng,
			Lat:     media.Location.Lat,
		}
	}

	return post
}

// FromHashtagInfo maps raw hashtag metadata into a record
func FromHashtagInfo(info *instagram.HashtagInfo) HashtagInfo {
	return HashtagInfo{
		ID:            strconv.FormatInt(info.ID, 10),
		Name:          info.Name,
		MediaCount:    info.MediaCount,
		ProfilePicURL: info.ProfilePicURL,
	}
}

func fromMediaUser(user instagram.MediaUser) UserInfo {
	return UserInfo{
		PK:         strconv.FormatInt(user.PK, 10),
		Username:   user.Username,
		FullName:   user.FullName,
		IsPrivate:  user.IsPrivate,
		IsVerified: user.IsVerified,
	}
}

// mediaURLs collects the best available rendition URL of the post and of
// each carousel entry
func mediaURLs(media *instagram.Media) []string {
	var urls []string
	if u := bestURL(media); u != "" {
		urls = append(urls, u)
	}
	for i := range media.CarouselMedia {
		if u := bestURL(&media.CarouselMedia[i]); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func bestURL(media *instagram.Media) string {
	if media.ImageVersions != nil && len(media.ImageVersions.Candidates) > 0 {
		return media.ImageVersions.Candidates[0].URL
	}
	if len(media.VideoVersions) > 0 {
		return media.VideoVersions[0].URL
	}
	return ""
}
