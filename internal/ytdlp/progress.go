package ytdlp

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"mdownloader/internal/media"
)

const progressPrefix = "[progress] "

// progressTemplate makes yt-dlp print one parseable line per progress tick.
// The filename goes last because it may contain spaces.
const progressTemplate = "download:" + progressPrefix +
	"%(progress.status)s %(progress.downloaded_bytes)s " +
	"%(progress.total_bytes,progress.total_bytes_estimate)s " +
	"%(progress.speed)s %(progress.eta)s %(progress.filename)s"

// scanProgress reads yt-dlp stdout until EOF and reports every progress line.
// It always drains r so the writer never blocks.
func scanProgress(r io.Reader, report func(media.Progress)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if report == nil {
			continue
		}
		if p, ok := parseProgressLine(sc.Text()); ok {
			report(p)
		}
	}
	io.Copy(io.Discard, r)
}

func parseProgressLine(line string) (media.Progress, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, progressPrefix) {
		return media.Progress{}, false
	}
	fields := strings.SplitN(strings.TrimPrefix(line, progressPrefix), " ", 6)
	if len(fields) < 5 || fields[0] == "" {
		return media.Progress{}, false
	}
	p := media.Progress{
		Status:          fields[0],
		DownloadedBytes: parseInt(fields[1]),
		TotalBytes:      parseInt(fields[2]),
		Speed:           parseFloat(fields[3]),
		ETA:             parseInt(fields[4]),
	}
	if len(fields) == 6 && fields[5] != "NA" {
		p.Filename = fields[5]
	}
	return p, true
}

// yt-dlp prints NA for unknown values and floats for estimates.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	return int64(parseFloat(s))
}
