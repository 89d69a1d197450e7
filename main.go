package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mdownloader/internal/history"
	"mdownloader/internal/media"
	"mdownloader/internal/netclient"
	"mdownloader/internal/progress"
	"mdownloader/internal/youtube"
	"mdownloader/internal/ytdlp"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	flagConfig     string
	flagAddr       string
	flagServerless bool
	flagDebug      bool
)

// cfg holds the merged configuration once PersistentPreRunE has run.
var cfg *Config

var rootCmd = &cobra.Command{
	Use:               "mdownloader",
	Short:             "HTTP front-end for yt-dlp media info and downloads",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mdownloader %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "Listen address (default :5000)")
	rootCmd.PersistentFlags().BoolVar(&flagServerless, "serverless", false, "Ignore caller cookies and use the fixed cookie file")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Verbose logging with file:line")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults < config file < environment < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagServerless {
		cfg.Serverless = true
	}
	if flagDebug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetOutput(os.Stderr)
	if cfg.Debug {
		log.SetPrefix("[mdownloader] ")
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return nil
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdownContext()
	defer stop()

	if _, err := exec.LookPath(cfg.YtdlpPath); err != nil {
		log.Printf("⚠️  %s not found in PATH; extraction will fail: %v", cfg.YtdlpPath, err)
	}

	s, closeDeps, err := buildServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}

	mode := "local"
	if cfg.Serverless {
		mode = "serverless"
	}
	color.Cyan("🚀 mdownloader %s listening on %s (%s mode, %s metadata)", Version, cfg.Addr, mode, cfg.MetadataBackend)
	return runServer(ctx, srv)
}

// buildServer wires the configured backends. The returned func releases them.
func buildServer(ctx context.Context, cfg *Config) (*Server, func(), error) {
	thumbClient, err := netclient.New(cfg.ThumbnailTimeout.Duration, cfg.ProxyAddr)
	if err != nil {
		return nil, nil, err
	}

	yt := ytdlp.New(ytdlp.Options{
		Binary:         cfg.YtdlpPath,
		FFmpegLocation: cfg.FFmpegLocation,
		ProxyAddr:      cfg.ProxyAddr,
		Timeout:        cfg.ExtractTimeout.Duration,
	})

	fetcher, err := newFetcher(cfg, yt)
	if err != nil {
		return nil, nil, err
	}

	store := progress.Open(ctx, progress.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.ProgressTTL.Duration)

	var hist *history.Store
	if cfg.HistoryDB != "" {
		hist, err = history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("✅ Download history at %s", cfg.HistoryDB)
	}

	s := newServer(ctx, cfg, serverDeps{
		Fetcher:    fetcher,
		Downloader: yt,
		Progress:   store,
		History:    hist,
		HTTPClient: thumbClient,
	})
	return s, func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️  closing progress store: %v", err)
		}
		hist.Close()
	}, nil
}

func newFetcher(cfg *Config, yt *ytdlp.Client) (media.MetadataFetcher, error) {
	if strings.EqualFold(cfg.MetadataBackend, "youtube") {
		client, err := netclient.New(cfg.ExtractTimeout.Duration, cfg.ProxyAddr)
		if err != nil {
			return nil, err
		}
		return youtube.New(client), nil
	}
	return yt, nil
}
