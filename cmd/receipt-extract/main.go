package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/parsing"
	"github.com/zombor/receipt-extractor/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errFailed marks a run where at least one document could not be processed.
var errFailed = errors.New("one or more documents failed")

// result is printed for every document when records are not persisted.
type result struct {
	File       string          `json:"file"`
	Backend    string          `json:"backend"`
	Pages      int             `json:"pages"`
	Confidence float64         `json:"confidence"`
	Receipt    parsing.Receipt `json:"receipt"`
	Error      string          `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code: 0 on success,
// 1 on a usage or setup error, 2 when some documents failed.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootFlags := ff.NewFlagSet("receipt-extract")
	var (
		backendName = rootFlags.StringLong("backend", extraction.BackendTesseract, "Extraction backend: embedded, layout, tesseract, vision or ollama")
		itemsMode   = rootFlags.StringLong("items", "structured", "Line item strategy: structured or price-anchored")
		dpi         = rootFlags.IntLong("dpi", 300, "Rasterization DPI for OCR and vision backends")
		lang        = rootFlags.StringLong("lang", "eng", "Comma separated OCR languages")
		pageWorkers = rootFlags.IntLong("page-workers", 4, "Pages recognized concurrently")
		tempDir     = rootFlags.StringLong("temp-dir", "", "Directory for per-document render scratch space (default system temp)")
		geminiKey   = rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = rootFlags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = rootFlags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = rootFlags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		persist     = rootFlags.BoolLong("persist", "Store documents and parsed records instead of only printing them")
		dbPath      = rootFlags.StringLong("db", "receipts.db", "Database file path")
		storagePath = rootFlags.StringLong("storage", "./uploads", "Storage directory path")
		maxSize     = rootFlags.IntLong("max-size", int(receipt.DefaultMaxFileSize), "Maximum document size in bytes (with --persist)")
		verbose     = rootFlags.BoolLong("verbose", "Enable debug logging")
		showVersion = rootFlags.BoolLong("version", "Show version information")
	)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	// openStore opens the record database and document storage shared by
	// every persisted operation.
	openStore := func() (*receipt.BoltDB, *receipt.LocalStorage, error) {
		slog.Info("Initializing database...")
		db, err := receipt.NewBoltDB(*dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing database: %w", err)
		}
		slog.Info("Initializing storage...")
		store, err := receipt.NewLocalStorage(*storagePath)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("initializing storage: %w", err)
		}
		return db, store, nil
	}

	// withRecords runs fn against a Service that only reads and deletes
	// stored records; it never extracts.
	withRecords := func(fn func(*receipt.Service) error) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(receipt.NewService(db, nil, nil, store))
	}

	root := &ff.Command{
		Name:      "receipt-extract",
		Usage:     "receipt-extract [FLAGS] <document>...",
		ShortHelp: "extract structured receipt data from PDFs and photos",
		Flags:     rootFlags,
		Exec: func(ctx context.Context, files []string) error {
			if len(files) == 0 {
				return ff.ErrHelp
			}

			mode, ok := parsing.ParseItemMode(*itemsMode)
			if !ok {
				return fmt.Errorf("invalid items mode %q: valid are structured or price-anchored", *itemsMode)
			}

			cfg := extraction.Config{
				Logger:      slog.Default(),
				TempDir:     *tempDir,
				DPI:         *dpi,
				Languages:   splitList(*lang),
				PageWorkers: *pageWorkers,
			}

			// Initialize backend based on type
			var backend extraction.Backend
			switch *backendName {
			case extraction.BackendEmbedded:
				backend = extraction.NewEmbedded(cfg)
			case extraction.BackendLayout:
				backend = extraction.NewLayout(cfg)
			case extraction.BackendTesseract:
				backend = extraction.NewTesseract(cfg)
			case extraction.BackendVision:
				apiKey := *geminiKey
				if apiKey == "" {
					apiKey = os.Getenv("GEMINI_API_KEY")
				}
				slog.Info("Initializing Gemini vision backend...", "model", *geminiModel)
				vision := extraction.NewVision(ctx, cfg, apiKey, *geminiModel)
				defer vision.Close()
				backend = vision
			case extraction.BackendOllama:
				slog.Info("Initializing Ollama vision backend...", "url", *ollamaURL, "model", *ollamaModel)
				backend = extraction.NewOllama(ctx, cfg, *ollamaURL, *ollamaModel)
			default:
				return fmt.Errorf("invalid backend %q: valid are embedded, layout, tesseract, vision or ollama", *backendName)
			}

			engine, err := extraction.NewEngine(backend, cfg.Logger)
			if err != nil {
				return fmt.Errorf("initializing extraction engine: %w", err)
			}
			parser := parsing.New(parsing.WithItemMode(mode), parsing.WithLogger(cfg.Logger))

			if !*persist {
				return printDocuments(ctx, enc, engine, parser, files)
			}

			db, store, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			service := receipt.NewService(db, engine, parser, store)
			service.SetMaxFileSize(int64(*maxSize))
			return processDocuments(ctx, enc, service, files)
		},
	}

	listFlags, listPage, listPerPage := pageFlags("list", rootFlags)
	searchFlags, searchPage, searchPerPage := pageFlags("search", rootFlags)
	showFlags := ff.NewFlagSet("show").SetParent(rootFlags)
	showFile := showFlags.StringLong("file", "", "Also write the stored document to this path")

	root.Subcommands = []*ff.Command{
		{
			Name:      "list",
			Usage:     "receipt-extract list [FLAGS]",
			ShortHelp: "list stored receipts, newest first",
			Flags:     listFlags,
			Exec: func(ctx context.Context, args []string) error {
				return withRecords(func(s *receipt.Service) error {
					page, err := s.ListReceipts(*listPage, *listPerPage)
					if err != nil {
						return err
					}
					return enc.Encode(page)
				})
			},
		},
		{
			Name:      "search",
			Usage:     "receipt-extract search [FLAGS] <query>",
			ShortHelp: "search stored receipts by merchant or extracted text",
			Flags:     searchFlags,
			Exec: func(ctx context.Context, args []string) error {
				if len(args) == 0 {
					return ff.ErrHelp
				}
				return withRecords(func(s *receipt.Service) error {
					page, err := s.SearchReceipts(strings.Join(args, " "), *searchPage, *searchPerPage)
					if err != nil {
						return err
					}
					return enc.Encode(page)
				})
			},
		},
		{
			Name:      "show",
			Usage:     "receipt-extract show [FLAGS] <id>",
			ShortHelp: "print one stored receipt",
			Flags:     showFlags,
			Exec: func(ctx context.Context, args []string) error {
				if len(args) != 1 {
					return ff.ErrHelp
				}
				return withRecords(func(s *receipt.Service) error {
					rec, err := s.GetReceipt(args[0])
					if err != nil {
						return err
					}
					if *showFile != "" {
						data, err := s.GetReceiptFile(args[0])
						if err != nil {
							return err
						}
						if err := os.WriteFile(*showFile, data, 0644); err != nil {
							return fmt.Errorf("writing document: %w", err)
						}
					}
					return enc.Encode(rec)
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "receipt-extract delete <id>",
			ShortHelp: "delete a stored receipt and its document",
			Flags:     ff.NewFlagSet("delete").SetParent(rootFlags),
			Exec: func(ctx context.Context, args []string) error {
				if len(args) != 1 {
					return ff.ErrHelp
				}
				return withRecords(func(s *receipt.Service) error {
					if err := s.DeleteReceipt(args[0]); err != nil {
						return err
					}
					slog.Info("Deleted receipt", "id", args[0])
					return nil
				})
			},
		},
	}

	if err := root.Parse(args, ff.WithEnvVarPrefix("RECEIPT_EXTRACT")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected(root)))
		if errors.Is(err, ff.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	switch err := root.Run(ctx); {
	case err == nil:
		return 0
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected(root)))
		return 1
	case errors.Is(err, errFailed):
		return 2
	default:
		slog.Error("Command failed", "error", err)
		return 1
	}
}

// selected is the command chosen by the last parse, or root before one.
func selected(root *ff.Command) *ff.Command {
	if cmd := root.GetSelected(); cmd != nil {
		return cmd
	}
	return root
}

// pageFlags creates a subcommand flag set carrying pagination flags.
func pageFlags(name string, parent *ff.FlagSet) (*ff.FlagSet, *int, *int) {
	fs := ff.NewFlagSet(name).SetParent(parent)
	page := fs.IntLong("page", 1, "Page number, starting at 1")
	perPage := fs.IntLong("per-page", receipt.DefaultPerPage, "Receipts per page")
	return fs, page, perPage
}

// printDocuments extracts and parses each file and prints one result per
// file without storing anything.
func printDocuments(ctx context.Context, enc *json.Encoder, engine *extraction.Engine, parser *parsing.Parser, files []string) error {
	failed := false
	for _, path := range files {
		res := result{File: path}
		doc, err := engine.Extract(ctx, path)
		if err != nil {
			res.Error = err.Error()
			failed = true
		} else {
			res.Backend = doc.Backend
			res.Pages = doc.PageCount()
			res.Confidence = doc.Confidence
			res.Receipt = parser.Parse(doc.Text())
		}
		if err := enc.Encode(res); err != nil {
			slog.Error("Error encoding result", "error", err)
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

// processDocuments stores, extracts, parses and persists each file.
func processDocuments(ctx context.Context, enc *json.Encoder, service *receipt.Service, files []string) error {
	failed := false
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read document", "path", path, "error", err)
			failed = true
			continue
		}
		rec, err := service.ProcessFile(ctx, filepath.Base(path), data)
		if err != nil {
			slog.Error("Failed to process document", "path", path, "error", err)
			failed = true
			continue
		}
		if err := enc.Encode(rec); err != nil {
			slog.Error("Error encoding receipt", "error", err)
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
