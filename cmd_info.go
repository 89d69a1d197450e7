package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mdownloader/internal/media"
	"mdownloader/internal/ytdlp"
)

var flagCookies string

var infoCmd = &cobra.Command{
	Use:   "info <url>",
	Short: "Print the format listing for a URL as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  infoRun,
}

func init() {
	infoCmd.Flags().StringVar(&flagCookies, "cookies", "", "Netscape cookie file to extract with")
}

func infoRun(cmd *cobra.Command, args []string) error {
	url := args[0]
	if !urlPattern.MatchString(url) {
		return fmt.Errorf("%s: %q", msgInvalidURL, url)
	}
	if flagCookies != "" {
		if _, err := os.Stat(flagCookies); err != nil {
			return fmt.Errorf("cookie file: %w", err)
		}
	}

	yt := ytdlp.New(ytdlp.Options{
		Binary:         cfg.YtdlpPath,
		FFmpegLocation: cfg.FFmpegLocation,
		ProxyAddr:      cfg.ProxyAddr,
		Timeout:        cfg.ExtractTimeout.Duration,
	})
	fetcher, err := newFetcher(cfg, yt)
	if err != nil {
		return err
	}

	payload, err := media.Describe(cmd.Context(), fetcher, url, media.FetchOptions{CookieFile: flagCookies})
	if err != nil {
		return fmt.Errorf("extracting %s: %w", url, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
