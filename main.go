package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/config"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/extraction"
	"github.com/skylane-labs/fieldscore/pkg/facts"
	"github.com/skylane-labs/fieldscore/pkg/llm"
	"github.com/skylane-labs/fieldscore/pkg/logging"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/observability"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
	"github.com/skylane-labs/fieldscore/pkg/retry"
	"github.com/skylane-labs/fieldscore/pkg/reviews"
	"github.com/skylane-labs/fieldscore/pkg/scoring"
	"github.com/skylane-labs/fieldscore/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "score":
		err = runScore(os.Args[2:])
	case "version":
		fmt.Println(Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", logging.SanitizeError(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `fieldscore %s

Usage:
  fieldscore build [flags]   extract, aggregate and persist airport feature scores
  fieldscore score [flags]   read persona or feature scores from a built store
  fieldscore version         print the version

Run "fieldscore <command> -h" for the flags of each command.
`, Version)
}

func runBuild(args []string) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	reviewPaths := fs.String("reviews", strings.Join(cfg.Reviews.Paths, ","), "comma-separated review snapshot JSONL files")
	dbPath := fs.String("db", cfg.Store.Path, "score store path")
	incremental := fs.Bool("incremental", false, "skip airports whose review set is unchanged since their last build")
	airports := fs.String("airports", "", "comma-separated ICAO idents to rebuild (forces a rebuild of each)")
	ontologyPath := fs.String("ontology", cfg.Artifacts.OntologyPath, "ontology YAML (empty uses the embedded default)")
	featuresPath := fs.String("features", cfg.Artifacts.FeaturesPath, "feature definitions YAML (empty uses the embedded default)")
	personasPath := fs.String("personas", cfg.Artifacts.PersonasPath, "persona definitions YAML (empty uses the embedded default)")
	factsDriver := fs.String("facts-driver", cfg.Facts.Driver, `facts backend: "static", "postgres" or "sqlserver" (empty skips facts)`)
	factsDSN := fs.String("facts-dsn", "", "facts connection string, or file path for the static driver (default $FACTS_DSN)")
	metricsAddr := fs.String("metrics-addr", cfg.Build.MetricsAddr, "serve Prometheus metrics on this address while the build runs")
	workers := fs.Int("workers", cfg.Build.Workers, "concurrent airports, and with them concurrent extraction calls")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := zapcore.InfoLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	logger, err := newLogger(cfg.Env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := splitList(*reviewPaths)
	if len(paths) == 0 {
		return errors.New("at least one review snapshot is required (-reviews or REVIEWS_PATHS)")
	}

	// The DSN never goes through a flag default so "build -h" cannot echo
	// credentials.
	dsn := *factsDSN
	if dsn == "" {
		dsn = cfg.Facts.DSN
	}

	ont, err := loadOntology(*ontologyPath)
	if err != nil {
		return err
	}

	factsSrc, err := facts.NewFromConfig(ctx, *factsDriver, dsn, logger)
	if err != nil {
		return fmt.Errorf("open facts source: %w", err)
	}
	defer factsSrc.Close()

	scoringCfg, err := loadScoring(*featuresPath, ont, factsSrc.Fields())
	if err != nil {
		return err
	}
	personaSet, err := loadPersonas(*personasPath, scoringCfg, logger)
	if err != nil {
		return err
	}

	store, err := database.Open(&database.Config{Path: *dbPath, BusyTimeout: cfg.Store.BusyTimeout()}, logger)
	if err != nil {
		return fmt.Errorf("open score store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate score store: %w", err)
	}

	client, err := llm.NewFromConfig(&llm.Config{
		Provider:  cfg.LLM.Provider,
		Endpoint:  cfg.LLM.Endpoint,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	sources := make([]reviews.Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, reviews.NewJSONL(p, "", logger))
	}
	source := reviews.Merge(logger, sources...)

	metrics := observability.NewBuildMetrics()
	if *metricsAddr != "" {
		ms := observability.NewMetricsServer(*metricsAddr, logger)
		ms.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			ms.Shutdown(shutdownCtx)
		}()
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Build.MaxRetries
	retryCfg.InitialDelay = cfg.Build.InitialDelay()
	retryCfg.MaxDelay = cfg.Build.MaxDelay()

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: *workers}, logger)

	svc := services.NewBuildService(
		store,
		source,
		factsSrc,
		extraction.NewLLMExtractor(client, ont, logger),
		extraction.NewLLMSummarizer(client, logger),
		ont,
		scoringCfg,
		personaSet,
		pool,
		clockwork.NewRealClock(),
		metrics,
		services.BuildConfig{Retry: retryCfg, AIConfidenceScale: cfg.Build.AIConfidenceScale},
		logger,
	)

	result, err := svc.Run(ctx, services.BuildOptions{
		Incremental: *incremental,
		Airports:    splitList(*airports),
	})
	if err != nil {
		return err
	}

	printBuildResult(result)
	if !result.Success {
		return fmt.Errorf("%d airport(s) failed", result.Failed)
	}
	return nil
}

func runScore(args []string) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("score", flag.ExitOnError)
	airport := fs.String("airport", "", "ICAO ident to score (required)")
	persona := fs.String("persona", "", "persona id; empty prints the raw feature scores instead")
	dbPath := fs.String("db", cfg.Store.Path, "score store path")
	ontologyPath := fs.String("ontology", cfg.Artifacts.OntologyPath, "ontology YAML (empty uses the embedded default)")
	featuresPath := fs.String("features", cfg.Artifacts.FeaturesPath, "feature definitions YAML (empty uses the embedded default)")
	personasPath := fs.String("personas", cfg.Artifacts.PersonasPath, "persona definitions YAML (empty uses the embedded default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *airport == "" {
		fs.Usage()
		return errors.New("-airport is required")
	}

	logger, err := newLogger(cfg.Env, zapcore.WarnLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Opening a missing path would create an empty store; catch the typo
	// before SQLite does.
	if _, err := os.Stat(*dbPath); err != nil {
		return fmt.Errorf("score store %s not found, run a build first", *dbPath)
	}

	ont, err := loadOntology(*ontologyPath)
	if err != nil {
		return err
	}
	scoringCfg, err := loadScoring(*featuresPath, ont, facts.Fields())
	if err != nil {
		return err
	}
	personaSet, err := loadPersonas(*personasPath, scoringCfg, logger)
	if err != nil {
		return err
	}

	store, err := database.Open(&database.Config{Path: *dbPath, BusyTimeout: cfg.Store.BusyTimeout()}, logger)
	if err != nil {
		return fmt.Errorf("open score store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	svc := services.NewScoreService(store, scoringCfg, personaSet, logger)

	if *persona != "" {
		ps, err := svc.ScorePersona(ctx, *airport, *persona)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %.3f (features: %d present, %d missing)\n",
			ps.AirportIdent, ps.PersonaID, ps.Score, ps.FeaturesPresent, ps.FeaturesMissing)
	} else {
		if err := printFeatureScores(ctx, svc, *airport); err != nil {
			return err
		}
	}

	summary, err := svc.Summary(ctx, *airport)
	switch {
	case err == nil:
		fmt.Printf("\n%s\n", summary.Summary)
	case !errors.Is(err, apperrors.ErrNotFound):
		return err
	}
	return nil
}

func printFeatureScores(ctx context.Context, svc services.ScoreService, airport string) error {
	scores, err := svc.FeatureScores(ctx, airport)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(scores.Values))
	for name := range scores.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(scores.AirportIdent)
	for _, name := range names {
		if v := scores.Values[name]; v != nil {
			fmt.Printf("  %-24s %.3f\n", name, *v)
		} else {
			fmt.Printf("  %-24s (no data)\n", name)
		}
	}

	meta, err := svc.Meta(ctx)
	if err != nil {
		return err
	}
	if built := meta[models.MetaBuiltAt]; built != "" {
		fmt.Printf("\nbuilt %s from %s\n", built, meta[models.MetaSourceVersion])
	}
	return nil
}

func printBuildResult(r *models.BuildResult) {
	fmt.Printf("build %s finished in %s\n", r.BuildID, r.Duration.Round(time.Millisecond))
	fmt.Printf("  processed: %d  written: %d  skipped: %d  failed: %d\n",
		r.Processed, r.Written, r.Skipped, r.Failed)
	for _, ident := range r.FailedIdents {
		fmt.Printf("  failed: %s\n", ident)
	}
}

func loadOntology(path string) (*ontology.Ontology, error) {
	if path == "" {
		return ontology.Default(), nil
	}
	ont, err := ontology.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}
	return ont, nil
}

func loadScoring(path string, ont *ontology.Ontology, factFields []string) (*scoring.Config, error) {
	if path == "" {
		cfg, err := scoring.Default(ont, factFields)
		if err != nil {
			return nil, fmt.Errorf("load default feature definitions: %w", err)
		}
		return cfg, nil
	}
	cfg, err := scoring.LoadFile(path, ont, factFields)
	if err != nil {
		return nil, fmt.Errorf("load feature definitions: %w", err)
	}
	return cfg, nil
}

func loadPersonas(path string, cfg *scoring.Config, logger *zap.Logger) (*scoring.PersonaSet, error) {
	if path == "" {
		set, err := scoring.DefaultPersonas(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("load default personas: %w", err)
		}
		return set, nil
	}
	set, err := scoring.LoadPersonasFile(path, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	return set, nil
}

// newLogger builds the process logger. Logs go to stderr so command output
// stays parseable.
func newLogger(env string, level zapcore.Level) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	if env == "local" {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	return logConfig.Build()
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
