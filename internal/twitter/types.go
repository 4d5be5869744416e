package twitter

// ContentType classifies what media a tweet carries.
type ContentType string

const (
	TypePhoto ContentType = "photo"
	TypeVideo ContentType = "video"
	TypeMixed ContentType = "mixed"
)

// Variant is one encoding of a video. Bitrate is absent for HLS playlists.
type Variant struct {
	ContentType string `json:"content_type"`
	Bitrate     int    `json:"bitrate,omitempty"`
	URL         string `json:"url"`
}

// MediaItem is a single photo or video attached to a tweet.
type MediaItem struct {
	Type          string    `json:"type"` // "photo" | "video"
	URL           string    `json:"url"`
	MediaURLHTTPS string    `json:"media_url_https"`
	Variants      []Variant `json:"variants,omitempty"`
	DurationMS    int       `json:"duration_millis,omitempty"`
}

// User is the tweet author.
type User struct {
	Name           string `json:"name"`
	ScreenName     string `json:"screen_name"`
	ProfileImage   string `json:"profile_image_url"`
	IsBlueVerified bool   `json:"is_blue_verified"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

// Tweet carries the metadata used for caption rendering.
type Tweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	User          User   `json:"user"`
	ReplyCount    int    `json:"reply_count"`
	RetweetCount  int    `json:"retweet_count"`
	QuoteCount    int    `json:"quote_count"`
	FavoriteCount int    `json:"favorite_count"`
	ViewCount     int    `json:"view_count,omitempty"`
}

// Response is the resolver service's descriptor for one tweet URL.
// Immutable after decoding; scoped to one pipeline iteration.
type Response struct {
	Type       ContentType `json:"type"`
	MediaItems []MediaItem `json:"media_items"`
	Tweet      Tweet       `json:"tweet"`
}
