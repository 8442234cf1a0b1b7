// Command pagefuse fuses a web page's DOM walk, OCR lines, and clickable
// scan into one element model, then answers semantic and spatial queries
// over it.
//
// Usage:
//
//	pagefuse analyze -url https://example.com [-config pagefuse.yaml] [-hover]
//	pagefuse serve [-config pagefuse.yaml] [-snapshot id] [-mcp]
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pagefuse/pagefuse/browse"
	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/embedding"
	"github.com/pagefuse/pagefuse/fuse"
	"github.com/pagefuse/pagefuse/idgen"
	"github.com/pagefuse/pagefuse/search"
	"github.com/pagefuse/pagefuse/shield"
	"github.com/pagefuse/pagefuse/store"
	"github.com/pagefuse/pagefuse/visdiff"
	"github.com/pagefuse/pagefuse/vision"
)

const version = "1.0.0"

// hoverCaptureLimit bounds how many clickables get the hover treatment per
// page; each one costs two screenshots plus a settle delay.
const hoverCaptureLimit = 10

type appConfig struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`

	Auth struct {
		User string `yaml:"user"`
		// PasswordHash is a bcrypt hash. Empty disables Basic Auth.
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"auth"`

	Browser struct {
		Remote         string        `yaml:"remote"`
		DisableStealth bool          `yaml:"disable_stealth"`
		NavTimeout     time.Duration `yaml:"nav_timeout"`
		HoverSettle    time.Duration `yaml:"hover_settle"`
	} `yaml:"browser"`

	Vision    vision.Config          `yaml:"vision"`
	Embedding embedding.Config       `yaml:"embedding"`
	Rerank    embedding.RerankConfig `yaml:"rerank"`
	Fuse      fuse.Config            `yaml:"fuse"`
	Search    search.Config          `yaml:"search"`
}

func loadConfig(path string) (*appConfig, error) {
	var cfg appConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "pagefuse.db"
	}
	return &cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pagefuse <analyze|serve> [flags]")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		slog.Error("pagefuse", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// --- analyze ---

type analyzeOutput struct {
	SnapshotID string             `json:"snapshot_id,omitempty"`
	URL        string             `json:"url"`
	Count      int                `json:"count"`
	Elements   []*element.Element `json:"elements"`
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	pageURL := fs.String("url", "", "page to analyze")
	htmlPath := fs.String("html", "", "static HTML file instead of a live page")
	hover := fs.Bool("hover", false, "capture hover states for clickable elements")
	save := fs.Bool("save", true, "persist the snapshot to the database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pageURL == "" && *htmlPath == "" {
		return fmt.Errorf("analyze: -url or -html is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	analyzer := vision.New(cfg.Vision)
	src, crops, err := acquire(ctx, cfg, analyzer, *pageURL, *htmlPath, *hover)
	if err != nil {
		return err
	}

	engine := fuse.NewEngine(cfg.Fuse)
	elements := engine.Fuse(src)
	engine.Enrich(ctx, elements, analyzer, crops, fuse.NewCache())

	embedder := embedding.New(cfg.Embedding)
	idx := search.NewIndex(cfg.Search, embedder, embedding.NewReranker(cfg.Rerank))
	if err := idx.Build(ctx, elements); err != nil {
		return err
	}

	out := analyzeOutput{URL: *pageURL, Count: len(elements), Elements: elements}
	if *htmlPath != "" {
		out.URL = *htmlPath
	}

	if *save {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		snap := store.Snapshot{
			ID:         idgen.Prefixed("snap_", idgen.UUIDv7())(),
			URL:        out.URL,
			CapturedAt: time.Now().UTC(),
		}
		if err := db.Save(ctx, snap, elements, idx.Vectors()); err != nil {
			return err
		}
		out.SnapshotID = snap.ID
		slog.Info("snapshot saved", "id", snap.ID, "elements", len(elements))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// acquire produces fusion sources either from a live page or a static HTML
// file. Live acquisition also runs OCR over the screenshot and, when asked,
// the hover-capture loop.
func acquire(ctx context.Context, cfg *appConfig, analyzer vision.Analyzer, pageURL, htmlPath string, hover bool) (fuse.Sources, fuse.CropFunc, error) {
	if htmlPath != "" {
		f, err := os.Open(htmlPath)
		if err != nil {
			return fuse.Sources{}, nil, fmt.Errorf("open html: %w", err)
		}
		defer f.Close()
		src, err := browse.ParseStatic(f)
		return src, nil, err
	}

	browser := browse.New(browse.Config{
		RemoteURL:      cfg.Browser.Remote,
		DisableStealth: cfg.Browser.DisableStealth,
		NavTimeout:     cfg.Browser.NavTimeout,
		HoverSettle:    cfg.Browser.HoverSettle,
	})
	if err := browser.Start(ctx); err != nil {
		return fuse.Sources{}, nil, err
	}
	defer browser.Close()

	page, err := browser.Open(ctx, pageURL)
	if err != nil {
		return fuse.Sources{}, nil, err
	}
	defer page.Close()

	capture, err := page.Capture(ctx)
	if err != nil {
		return fuse.Sources{}, nil, err
	}

	lines, err := analyzer.ReadLines(ctx, capture.PNG)
	if err != nil {
		slog.Warn("ocr pass failed, continuing without text lines", "error", err)
	}
	capture.Sources.OCRLines = lines

	if hover {
		captureHoverStates(ctx, page, analyzer, capture.Sources.Clickables)
	}
	return capture.Sources, capture.Crops(), nil
}

// captureHoverStates runs the hover loop over the first few clickables with
// selectors. Failures degrade that one candidate and move on.
func captureHoverStates(ctx context.Context, page *browse.Page, analyzer vision.Analyzer, clickables []element.Clickable) {
	det := visdiff.NewDetector(visdiff.Config{}, vision.NewTextReader(analyzer))

	captured := 0
	for i := range clickables {
		if captured >= hoverCaptureLimit {
			break
		}
		if clickables[i].Selector == "" {
			continue
		}
		change, err := page.DetectHover(ctx, det, clickables[i].Selector)
		if err != nil {
			slog.Warn("hover capture failed", "selector", clickables[i].Selector, "error", err)
			continue
		}
		clickables[i].HoverState = change
		captured++
	}
}

// --- serve ---

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	snapshotID := fs.String("snapshot", "", "snapshot to serve; empty = newest")
	mcpStdio := fs.Bool("mcp", false, "also serve MCP tools over stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	id := *snapshotID
	if id == "" {
		snaps, err := db.List(ctx)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return fmt.Errorf("serve: no snapshots in %s, run analyze first", cfg.DBPath)
		}
		id = snaps[0].ID
	}
	snap, elements, vectors, err := db.Load(ctx, id)
	if err != nil {
		return err
	}
	slog.Info("serving snapshot", "id", snap.ID, "url", snap.URL, "elements", len(elements))

	embedder := embedding.New(cfg.Embedding)
	idx := search.NewIndex(cfg.Search, embedder, embedding.NewReranker(cfg.Rerank))
	if err := idx.Restore(elements, vectors); err != nil {
		return err
	}
	svc := &search.Service{Index: idx}

	if *mcpStdio {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "pagefuse", Version: version}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	r := chi.NewRouter()
	stack, rl := shield.DefaultAPIStack(shield.RateLimitConfig{ExcludePrefixes: []string{"/health"}})
	rl.StartGC(ctx.Done())
	for _, mw := range stack {
		r.Use(mw)
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","snapshot":%q}`, snap.ID)
	})
	api := svc.Routes()
	if cfg.Auth.PasswordHash != "" {
		r.Group(func(r chi.Router) {
			r.Use(basicAuth(cfg.Auth.User, cfg.Auth.PasswordHash))
			r.Mount("/api", api)
		})
	} else {
		r.Mount("/api", api)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

// basicAuth guards the API with a single bcrypt-hashed credential.
func basicAuth(user, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="pagefuse"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
