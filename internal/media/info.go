package media

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultTitle    = "Unknown Title"
	DefaultUploader = "Unknown Uploader"

	maxDescriptionRunes = 500
	maxTitleRunes       = 100
)

// NormalizeInfo fills in the defaults every response carries and trims the
// description. requestURL stands in for a missing canonical page URL.
func NormalizeInfo(info VideoInfo, requestURL string) VideoInfo {
	if strings.TrimSpace(info.Title) == "" {
		info.Title = DefaultTitle
	}
	if strings.TrimSpace(info.Uploader) == "" {
		info.Uploader = DefaultUploader
	}
	if info.WebpageURL == "" {
		info.WebpageURL = requestURL
	}
	if info.Thumbnails == nil {
		info.Thumbnails = []Thumbnail{}
	}
	info.Description = shortenDescription(info.Description)
	return info
}

// shortenDescription keeps the first 500 characters and always marks a
// non-empty description with a trailing ellipsis.
func shortenDescription(desc string) string {
	if desc == "" {
		return ""
	}
	return truncateRunes(desc, maxDescriptionRunes) + "..."
}

var titleReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeTitle makes a media title safe to use as a download file name
// (without extension).
func SanitizeTitle(title string) string {
	return truncateRunes(titleReplacer.Replace(title), maxTitleRunes)
}

// DownloadTitle sanitizes title for a download name. A blank title, or the
// placeholder NormalizeInfo substitutes for one, becomes fallback.
func DownloadTitle(title, fallback string) string {
	if t := strings.TrimSpace(title); t == "" || t == DefaultTitle {
		title = fallback
	}
	return SanitizeTitle(title)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
