package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mdownloader/internal/download"
	"mdownloader/internal/history"
	"mdownloader/internal/media"
)

var (
	urlPattern        = regexp.MustCompile(`^https?://`)
	downloadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	bitratePattern    = regexp.MustCompile(`^[0-9]{1,4}$`)
)

// parseInfoRequest reads url and cookies from a JSON body, then the form,
// then (url only) the query string.
func parseInfoRequest(r *http.Request) infoRequest {
	var req infoRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			log.Printf("⚠️  JSON parsing error: %v", err)
		}
	}
	req.URL = strings.TrimSpace(req.URL)

	if req.URL == "" {
		req.URL = strings.TrimSpace(r.PostFormValue("url"))
	}
	if req.Cookies == "" {
		req.Cookies = r.PostFormValue("cookies")
	}
	if req.URL == "" {
		req.URL = strings.TrimSpace(r.URL.Query().Get("url"))
	}
	return req
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	req := parseInfoRequest(r)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}
	if !urlPattern.MatchString(req.URL) {
		writeError(w, http.StatusBadRequest, msgInvalidURL)
		return
	}

	cookieFile, cleanup, err := s.cookies.Resolve(req.Cookies)
	defer cleanup()
	if err != nil {
		log.Printf("❌ Failed to create temporary cookie file: %v", err)
		writeError(w, http.StatusInternalServerError, msgCookiesFailed)
		return
	}

	payload, err := media.Describe(s.baseCtx, s.fetcher, req.URL, media.FetchOptions{CookieFile: cookieFile})
	if err != nil {
		var extractErr *media.ExtractionError
		switch {
		case errors.Is(err, media.ErrExtractionEmpty):
			log.Printf("⚠️  No data extracted for %s", req.URL)
			writeError(w, http.StatusBadRequest, msgExtractionEmpty)
		case errors.As(err, &extractErr):
			log.Printf("❌ yt-dlp error for %s: %v", req.URL, err)
			writeError(w, http.StatusBadRequest, "Failed to extract video info: "+extractErr.Msg)
		default:
			log.Printf("❌ Extraction error for %s: %v", req.URL, err)
			writeError(w, http.StatusInternalServerError, msgProcessFailed)
		}
		return
	}

	log.Printf("✅ Info for %s: %d video / %d audio options", req.URL, len(payload.Formats.Video), len(payload.Formats.Audio))
	writeJSON(w, http.StatusOK, payload)
}

// handleDownload serves POST /api/download/{video,audio}. The file is
// streamed back and removed when the response is done.
func (s *Server) handleDownload(mode download.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := strings.TrimSpace(r.PostFormValue("url"))
		if url == "" {
			writeError(w, http.StatusBadRequest, msgURLRequired)
			return
		}
		if !urlPattern.MatchString(url) {
			writeError(w, http.StatusBadRequest, msgInvalidURL)
			return
		}

		id, ok := resolveDownloadID(r.PostFormValue("download_id"))
		if !ok {
			writeError(w, http.StatusBadRequest, msgInvalidID)
			return
		}
		w.Header().Set("X-Download-ID", id)

		req := download.Request{URL: url, Mode: mode, DownloadID: id}
		format := ""
		switch mode {
		case download.ModeAudio:
			req.Bitrate = r.PostFormValue("bitrate")
			if req.Bitrate == "" {
				req.Bitrate = download.DefaultBitrate
			}
			if !bitratePattern.MatchString(req.Bitrate) {
				writeError(w, http.StatusBadRequest, msgInvalidBitrate)
				return
			}
			format = req.Bitrate + "kbps"
		default:
			req.FormatID = r.PostFormValue("format_id")
			if req.FormatID == "" {
				req.FormatID = "best"
			}
			format = req.FormatID
			if q := r.PostFormValue("quality"); q != "" {
				log.Printf("ℹ️  quality=%s requested for %s (not used)", q, id)
			}
		}

		cookieFile, cleanup, err := s.cookies.Resolve("")
		defer cleanup()
		if err != nil {
			log.Printf("❌ cookie policy failed: %v", err)
			writeError(w, http.StatusInternalServerError, msgProcessingFailed)
			return
		}
		req.CookieFile = cookieFile

		log.Printf("⬇️  %s download %s started for %s (format %s)", mode, id, url, format)
		s.activeDownloads.Add(1)
		file, err := s.downloads.Download(s.baseCtx, req)
		s.activeDownloads.Add(-1)
		if err != nil {
			s.failedDownloads.Add(1)
			status, msg := downloadErrorResponse(err)
			log.Printf("❌ %s download %s failed: %v", mode, id, err)
			writeError(w, status, msg)
			return
		}
		defer file.Close()
		s.completedDownloads.Add(1)

		s.recordHistory(history.Entry{
			ID:       id,
			URL:      url,
			Title:    strings.TrimSuffix(file.Name, filepath.Ext(file.Name)),
			Mode:     string(mode),
			Format:   format,
			Filename: file.Name,
			Size:     file.Size,
		})

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", contentDisposition(file.Name))
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			log.Printf("⚠️  streaming %s aborted: %v", id, err)
			return
		}
		log.Printf("✅ %s download %s sent: %s (%d bytes)", mode, id, file.Name, file.Size)
	}
}

func downloadErrorResponse(err error) (int, string) {
	var extractErr *media.ExtractionError
	switch {
	case errors.As(err, &extractErr):
		return http.StatusBadRequest, "Download failed: " + extractErr.Msg
	case errors.Is(err, media.ErrExtractionEmpty):
		return http.StatusBadRequest, msgExtractionEmpty
	case errors.Is(err, media.ErrNoFileProduced):
		return http.StatusInternalServerError, msgNoFileCreated
	case errors.Is(err, media.ErrAudioExtractionFailed):
		return http.StatusInternalServerError, msgAudioFailed
	}
	return http.StatusInternalServerError, msgProcessingFailed
}

// resolveDownloadID validates a caller-supplied id or mints a new one.
func resolveDownloadID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.New().String(), true
	}
	return raw, downloadIDPattern.MatchString(raw)
}

// contentDisposition quotes name for the filename parameter and adds an
// RFC 5987 filename* form when name is not plain ASCII.
func contentDisposition(name string) string {
	ascii := make([]rune, 0, len(name))
	plain := true
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			ascii = append(ascii, '_')
		case r < 0x20 || r > 0x7e:
			ascii = append(ascii, '_')
			plain = false
		default:
			ascii = append(ascii, r)
		}
	}
	header := fmt.Sprintf(`attachment; filename="%s"`, string(ascii))
	if !plain {
		header += "; filename*=UTF-8''" + encodeRFC5987(name)
	}
	return header
}

func encodeRFC5987(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || strings.IndexByte("!#$&+-.^_`|~", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
