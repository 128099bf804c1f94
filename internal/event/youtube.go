package event

import "regexp"

// Covers watch?v=, youtu.be/, /v/, /embed/ and /live/ URLs.
var videoIDPattern = regexp.MustCompile(`(?:v=|/(?:embed|v|live)/|youtu\.be/)([0-9A-Za-z_-]+)`)

// YouTubeVideoID extracts the video id embedded in url.
func YouTubeVideoID(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type ThumbnailQuality string

const (
	ThumbnailDefault ThumbnailQuality = ""
	ThumbnailMedium  ThumbnailQuality = "mq"
	ThumbnailHigh    ThumbnailQuality = "hq"
	ThumbnailSD      ThumbnailQuality = "sd"
	ThumbnailMaxRes  ThumbnailQuality = "maxres"
)

var thumbnailPattern = regexp.MustCompile(`^(.+/)(.*default)((?:_live)?\..+)$`)

// ThumbnailWithQuality rewrites a YouTube thumbnail such as
// ".../vi/ID/default.jpg" to the requested size. Other URLs pass through.
func ThumbnailWithQuality(url string, quality ThumbnailQuality) string {
	m := thumbnailPattern.FindStringSubmatch(url)
	if m == nil {
		return url
	}
	return m[1] + string(quality) + "default" + m[3]
}
