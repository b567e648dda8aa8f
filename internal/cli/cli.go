package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tmxbank/internal/config"
	"tmxbank/internal/export"
	"tmxbank/internal/filewalker"
	"tmxbank/internal/graph"
	"tmxbank/internal/langtag"
	"tmxbank/internal/ledger"
	"tmxbank/internal/match"
	"tmxbank/internal/store"
	"tmxbank/internal/textutil"
	"tmxbank/internal/tmx"
	"tmxbank/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "tmxbank",
		Short: "Translation memory bank built from TMX archives",
		Long: `Parses SDL-flavored TMX translation memories into a searchable bank
backed by PostgreSQL, with optional pgvector similarity matching and
Neo4j-based consistency auditing.`,
	}

	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(conflictsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.tmx>",
		Short: "Parse a TMX file and summarize its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.tmx>",
		Short: "Export translation units to TSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return runExport(args[0], format, output)
		},
	}

	cmd.Flags().String("format", "tsv", "Export format: tsv or json")
	cmd.Flags().String("output", "", "Output path without extension (defaults to the input name)")

	return cmd
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Parse TMX files and load them into the translation memory bank",
		Long: `Walks the directory for .tmx files, parses them concurrently, and stores
units in PostgreSQL. Files already ingested with the same content are
skipped. When NEO4J_URI is set the units are also indexed in the knowledge
graph; when EMBEDDING_API_KEY is set the source segments are embedded for
similarity search.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(args[0])
		},
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ingested translation memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			limit, _ := cmd.Flags().GetInt("limit")
			semantic, _ := cmd.Flags().GetBool("semantic")
			return runSearch(args[0], lang, limit, semantic)
		},
	}

	cmd.Flags().String("lang", "", "Filter matches by target language")
	cmd.Flags().Int("limit", 10, "Maximum number of matches")
	cmd.Flags().Bool("semantic", false, "Rank by embedding similarity (requires EMBEDDING_API_KEY)")

	return cmd
}

func conflictsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts [source-text]",
		Short: "List source segments with inconsistent translations",
		Long: `Lists source segments that were translated differently across the ingested
files. With a source text argument, shows every recorded translation of
that one segment instead. Requires NEO4J_URI.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			source := ""
			if len(args) > 0 {
				source = args[0]
			}
			return runConflicts(source, limit)
		},
	}

	cmd.Flags().Int("limit", 25, "Maximum number of conflicts")

	return cmd
}

// runInspect handles the `inspect` command.
func runInspect(path string) error {
	ctx, cancel := setupContext()
	defer cancel()

	p, err := tmx.ParseFile(ctx, path)
	if err != nil {
		return err
	}

	hdr := p.Header()
	units := p.Units()

	withTarget := 0
	counts := make(map[tmx.ConfirmationLevel]int)
	for _, u := range units {
		if u.Target != nil {
			withTarget++
		}
		counts[u.Confirmation]++
	}

	fmt.Printf("File:            %s\n", path)
	fmt.Printf("Source language: %s\n", describeLang(hdr.SourceLanguage))
	fmt.Printf("Target language: %s\n", describeLang(hdr.TargetLanguage))
	if len(hdr.Domains) > 0 {
		fmt.Printf("Domains:         %s\n", strings.Join(hdr.Domains, ", "))
	}
	if hdr.Author != "" {
		fmt.Printf("Created by:      %s\n", hdr.Author)
	}
	if !hdr.CreatedAt.IsZero() {
		fmt.Printf("Created at:      %s\n", hdr.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("Units:           %d (%d with target)\n", len(units), withTarget)

	levels := []tmx.ConfirmationLevel{
		tmx.ConfirmationUnset,
		tmx.ConfirmationDraft,
		tmx.ConfirmationTranslated,
		tmx.ConfirmationRejectedTranslation,
		tmx.ConfirmationApprovedTranslation,
		tmx.ConfirmationRejectedSignOff,
		tmx.ConfirmationApprovedSignOff,
	}
	fmt.Println("Confirmation levels:")
	for _, lvl := range levels {
		if n := counts[lvl]; n > 0 {
			fmt.Printf("  %-20s %d\n", lvl, n)
		}
	}

	if len(units) > 0 {
		fmt.Println("\nPreview:")
		for i, u := range units {
			if i == 5 {
				break
			}
			src := textutil.Truncate(u.Source.Text(), 60)
			if u.Target == nil {
				fmt.Printf("  %d. %s => (no target)\n", i+1, src)
				continue
			}
			fmt.Printf("  %d. %s => %s\n", i+1, src, textutil.Truncate(u.Target.Text(), 60))
		}
	}

	return nil
}

// describeLang renders a language code with its canonical form when the two
// differ.
func describeLang(code string) string {
	if code == "" {
		return "(none)"
	}
	if canon, ok := langtag.Canonical(code); ok && canon != code {
		return fmt.Sprintf("%s (canonical %s)", code, canon)
	}
	return code
}

// runExport handles the `export` command.
func runExport(path, format, output string) error {
	ctx, cancel := setupContext()
	defer cancel()

	p, err := tmx.ParseFile(ctx, path)
	if err != nil {
		return err
	}
	units := p.Units()

	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path))
	}

	switch format {
	case "json":
		output += ".json"
		if err := export.WriteJSON(p.Header(), units, output); err != nil {
			return fmt.Errorf("export JSON: %w", err)
		}
	case "tsv":
		output += ".tsv"
		if err := export.WriteTSV(units, output); err != nil {
			return fmt.Errorf("export TSV: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	log.Info().
		Int("units", len(units)).
		Str("format", format).
		Str("output", output).
		Msg("Export complete")

	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// openPool connects to PostgreSQL and verifies the connection.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return pool, nil
}

// openGraph connects to Neo4j and verifies connectivity.
func openGraph(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")

	return driver, nil
}

// parsedFile carries one parsed TMX file between the parse and store phases
// of ingestion.
type parsedFile struct {
	path   string
	hash   string
	header tmx.Header
	units  []tmx.TranslationUnit
}

// runIngest handles the `ingest` command.
func runIngest(inputDir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}

	led := ledger.New(pool)
	if err := led.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	if err := led.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload ingest ledger")
	}

	// Graph indexing and embeddings are optional backends.
	var gr *graph.Graph
	if cfg.Neo4jURI != "" {
		driver, err := openGraph(ctx, cfg)
		if err != nil {
			return err
		}
		defer driver.Close(ctx)

		gr = graph.New(driver)
		if err := gr.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure graph schema: %w", err)
		}
	} else {
		log.Info().Msg("NEO4J_URI not set, skipping graph indexing")
	}

	var ec *match.EmbeddingClient
	var vi *match.VectorIndex
	if cfg.EmbeddingAPIKey != "" {
		ec = match.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
		vi = match.NewVectorIndex(pool, cfg.EmbeddingDimensions)
		if err := vi.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	} else {
		log.Info().Msg("EMBEDDING_API_KEY not set, skipping embeddings")
	}

	// Walk and parse files.
	paths, err := filewalker.Discover(inputDir)
	if err != nil {
		return fmt.Errorf("discover TMX files: %w", err)
	}
	if len(paths) == 0 {
		log.Warn().Str("dir", inputDir).Msg("No TMX files found")
		return nil
	}

	parsePool := worker.NewPool[string, *parsedFile](cfg.WorkerCount,
		func(ctx context.Context, path string) (*parsedFile, error) {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			hash := textutil.HashBytes(raw)
			if prev, ok := led.Seen(ctx, hash); ok {
				log.Info().Str("path", path).Str("previous", prev).Msg("Unchanged since last ingest, skipping")
				return nil, nil
			}

			p, err := tmx.ParseFile(ctx, path)
			if err != nil {
				return nil, err
			}
			return &parsedFile{path: path, hash: hash, header: p.Header(), units: p.Units()}, nil
		},
	)

	results := parsePool.Execute(ctx, paths)

	// Store sequentially; a failed file never aborts the run.
	var ingested, skipped, failed int
	for _, task := range results {
		if task.Err != nil {
			log.Error().Err(task.Err).Str("file", task.Input).Msg("Parse failed")
			failed++
			continue
		}
		if task.Result == nil {
			skipped++
			continue
		}
		pf := task.Result

		if pf.header.TargetLanguage != "" && langtag.Equal(pf.header.SourceLanguage, pf.header.TargetLanguage) {
			log.Warn().Str("file", pf.path).Str("lang", pf.header.SourceLanguage).Msg("Source and target languages are identical")
		}

		fileID, err := st.SaveFile(ctx, pf.path, pf.hash, pf.header, pf.units)
		if err != nil {
			log.Error().Err(err).Str("file", pf.path).Msg("Store failed")
			failed++
			continue
		}
		if err := led.Record(ctx, pf.hash, pf.path, fileID); err != nil {
			log.Warn().Err(err).Str("file", pf.path).Msg("Failed to record ingest")
		}

		if gr != nil {
			if err := gr.IndexUnits(ctx, pf.path, pf.units); err != nil {
				log.Warn().Err(err).Str("file", pf.path).Msg("Graph indexing failed")
			}
		}
		if ec != nil {
			if err := embedUnits(ctx, ec, vi, cfg.BatchSize, pf); err != nil {
				log.Warn().Err(err).Str("file", pf.path).Msg("Embedding failed")
			}
		}

		ingested++
	}

	log.Info().
		Int("ingested", ingested).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Ingestion complete")

	stats, err := st.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read store stats")
		return nil
	}
	log.Info().
		Int64("files", stats.Files).
		Int64("units", stats.Units).
		Int64("language_pairs", stats.LanguagePairs).
		Msg("Store totals")

	return nil
}

// embedUnits embeds the source segments of one file that the vector index
// does not know yet.
func embedUnits(ctx context.Context, ec *match.EmbeddingClient, vi *match.VectorIndex, batchSize int, pf *parsedFile) error {
	// Deduplicate segments by hash before asking the API.
	byHash := make(map[string]string)
	var order []string
	for _, u := range pf.units {
		src := u.Source.Text()
		if src == "" {
			continue
		}
		h := textutil.Hash(src)
		if _, ok := byHash[h]; ok {
			continue
		}
		byHash[h] = src
		order = append(order, h)
	}
	if len(order) == 0 {
		return nil
	}

	known, err := vi.Known(ctx, order)
	if err != nil {
		return fmt.Errorf("check indexed segments: %w", err)
	}

	var pending []string
	for _, h := range order {
		if !known[h] {
			pending = append(pending, h)
		}
	}
	if len(pending) == 0 {
		log.Debug().Str("file", pf.path).Msg("All segments already embedded")
		return nil
	}

	texts := make([]string, len(pending))
	for i, h := range pending {
		texts[i] = textutil.CollapseSpace(byHash[h])
	}

	vectors, err := ec.EmbedBatch(ctx, texts, batchSize)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}

	var records []match.EmbeddingRecord
	for i, h := range pending {
		if i >= len(vectors) || vectors[i] == nil {
			continue
		}
		records = append(records, match.EmbeddingRecord{
			Hash:     h,
			Source:   byHash[h],
			FilePath: pf.path,
			Vector:   vectors[i],
		})
	}
	if err := vi.Upsert(ctx, records); err != nil {
		return fmt.Errorf("store embeddings: %w", err)
	}

	log.Info().Str("file", pf.path).Int("embedded", len(records)).Msg("Segments embedded")
	return nil
}

// runSearch handles the `search` command.
func runSearch(query, lang string, limit int, semantic bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)

	if !semantic {
		matches, err := st.SearchText(ctx, query, lang, limit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		printMatches(matches)
		return nil
	}

	if cfg.EmbeddingAPIKey == "" {
		return fmt.Errorf("semantic search requires EMBEDDING_API_KEY")
	}

	ec := match.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	vi := match.NewVectorIndex(pool, cfg.EmbeddingDimensions)
	m := match.NewMatcher(st, vi, ec)

	result, err := m.Lookup(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if len(result.Exact) == 0 && len(result.Semantic) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	if len(result.Exact) > 0 {
		fmt.Printf("Exact matches (%d):\n", len(result.Exact))
		printMatches(result.Exact)
	}
	if len(result.Semantic) > 0 {
		fmt.Printf("Similar segments (%d):\n", len(result.Semantic))
		for i, s := range result.Semantic {
			fmt.Printf("%d. (%.3f) %s\n", i+1, s.Similarity, s.Source)
			fmt.Printf("   %s\n", s.FilePath)
		}
	}

	return nil
}

func printMatches(matches []store.Match) {
	for i, m := range matches {
		fmt.Printf("%d. %s\n", i+1, m.SourceText)
		fmt.Printf("   => %s\n", m.TargetText)
		fmt.Printf("   %s | %s => %s", m.FilePath, m.SourceLang, m.TargetLang)
		if m.Domain != "" {
			fmt.Printf(" | %s", m.Domain)
		}
		if m.Confirmation != "" && m.Confirmation != "Unspecified" {
			fmt.Printf(" | %s", m.Confirmation)
		}
		fmt.Println()
	}
}

// runConflicts handles the `conflicts` command.
func runConflicts(source string, limit int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.Neo4jURI == "" {
		return fmt.Errorf("conflicts requires NEO4J_URI")
	}

	driver, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	gr := graph.New(driver)

	if source != "" {
		translations, err := gr.Translations(ctx, source)
		if err != nil {
			return fmt.Errorf("list translations: %w", err)
		}
		if len(translations) == 0 {
			fmt.Println("No recorded translations.")
			return nil
		}
		for _, t := range translations {
			fmt.Printf("%s\n", t.Target)
			fmt.Printf("  %s", t.File)
			if t.Confirmation != "" {
				fmt.Printf(" (%s)", t.Confirmation)
			}
			fmt.Println()
		}
		return nil
	}

	conflicts, err := gr.Conflicts(ctx, limit)
	if err != nil {
		return fmt.Errorf("list conflicts: %w", err)
	}
	if len(conflicts) == 0 {
		fmt.Println("No conflicting translations.")
		return nil
	}
	for i, c := range conflicts {
		fmt.Printf("%d. %s\n", i+1, c.Source)
		for _, t := range c.Targets {
			fmt.Printf("   => %s\n", t)
		}
		fmt.Printf("   seen in: %s\n", strings.Join(c.Files, ", "))
	}

	return nil
}
