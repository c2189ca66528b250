// assess-extraction runs the tag extractor over a review snapshot against a
// live LLM endpoint and reports how usable the output is. A score of 100
// means every review produced at least one ontology-valid tag and nothing
// the model proposed had to be dropped.
//
// The score judges the extraction boundary, not the reviews: a review with
// no aspect signal at all still counts against coverage, because the
// pipeline's value depends on how often extraction finds something to score.
// Run it on a curated snapshot when tuning prompts, and on gen-reviews
// output when checking a new model or endpoint for basic JSON discipline.
//
// Usage: go run ./scripts/assess-extraction -reviews snapshot.jsonl [-limit 50]
//
// Endpoint configuration: LLM_PROVIDER, LLM_ENDPOINT, LLM_MODEL, LLM_API_KEY
// (or a config.yaml in the working directory).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/config"
	"github.com/skylane-labs/fieldscore/pkg/extraction"
	"github.com/skylane-labs/fieldscore/pkg/llm"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
	"github.com/skylane-labs/fieldscore/pkg/reviews"
)

// ReviewAssessment is the outcome for one review.
type ReviewAssessment struct {
	ReviewID   string
	Candidates int
	ValidTags  int
	Dropped    int
	Duration   time.Duration
	Err        error
}

// Report aggregates the run.
type Report struct {
	Reviews       int
	Failed        int
	WithTags      int
	Candidates    int
	ValidTags     int
	Dropped       int
	TotalDuration time.Duration
	AspectCounts  map[string]int
	Score         int
}

func main() {
	reviewsPath := flag.String("reviews", "", "review snapshot JSONL file (required)")
	ontologyPath := flag.String("ontology", "", "ontology YAML (empty uses the embedded default)")
	limit := flag.Int("limit", 50, "max reviews to assess (0 means all)")
	flag.Parse()

	if *reviewsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	cfg, err := config.Load("assess")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ont := ontology.Default()
	if *ontologyPath != "" {
		if ont, err = ontology.LoadFile(*ontologyPath); err != nil {
			fmt.Fprintf(os.Stderr, "load ontology: %v\n", err)
			os.Exit(1)
		}
	}

	client, err := llm.NewFromConfig(&llm.Config{
		Provider:  cfg.LLM.Provider,
		Endpoint:  cfg.LLM.Endpoint,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create llm client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	input, err := reviews.NewJSONL(*reviewsPath, "", logger).Reviews(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load reviews: %v\n", err)
		os.Exit(1)
	}
	if *limit > 0 && len(input) > *limit {
		input = input[:*limit]
	}
	if len(input) == 0 {
		fmt.Fprintln(os.Stderr, "snapshot contains no usable reviews")
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Extraction Assessment: %d reviews against %s (%s)\n", len(input), cfg.LLM.Model, cfg.LLM.Endpoint)
	fmt.Println(strings.Repeat("=", 80))

	extractor := extraction.NewLLMExtractor(client, ont, logger)
	report := Report{AspectCounts: make(map[string]int)}

	for i, review := range input {
		a := assessReview(ctx, extractor, ont, review, &report)
		report.Reviews++

		status := fmt.Sprintf("%d tags (%d dropped)", a.ValidTags, a.Dropped)
		if a.Err != nil {
			status = "FAILED: " + a.Err.Error()
		}
		fmt.Printf("  [%3d/%3d] %s %-38s %7dms  %s\n",
			i+1, len(input), review.AirportIdent, a.ReviewID,
			a.Duration.Milliseconds(), status)
	}

	report.Score = score(&report)
	printReport(&report)

	if report.Score < 50 {
		os.Exit(1)
	}
}

func assessReview(ctx context.Context, extractor extraction.Extractor, ont *ontology.Ontology, review models.RawReview, report *Report) ReviewAssessment {
	start := time.Now()
	candidates, err := extractor.Extract(ctx, review)
	a := ReviewAssessment{
		ReviewID:   review.ReviewID,
		Candidates: len(candidates),
		Duration:   time.Since(start),
		Err:        err,
	}
	report.TotalDuration += a.Duration
	if err != nil {
		report.Failed++
		return a
	}

	tags, dropped := extraction.Validate(ont, review, candidates, 1)
	a.ValidTags = len(tags)
	a.Dropped = dropped

	report.Candidates += len(candidates)
	report.ValidTags += len(tags)
	report.Dropped += dropped
	if len(tags) > 0 {
		report.WithTags++
	}
	for _, t := range tags {
		report.AspectCounts[t.Aspect]++
	}
	return a
}

// score blends coverage (reviews yielding at least one valid tag) with
// validity (candidates surviving ontology validation). Coverage dominates:
// a model that answers cleanly but finds nothing is not useful.
func score(r *Report) int {
	attempted := r.Reviews - r.Failed
	if attempted == 0 {
		return 0
	}
	coverage := float64(r.WithTags) / float64(r.Reviews)
	validity := 1.0
	if r.Candidates > 0 {
		validity = float64(r.ValidTags) / float64(r.Candidates)
	}
	return int(100 * (0.7*coverage + 0.3*validity))
}

func printReport(r *Report) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Reviews assessed:    %d (%d failed)\n", r.Reviews, r.Failed)
	fmt.Printf("Coverage:            %d/%d reviews produced valid tags\n", r.WithTags, r.Reviews)
	fmt.Printf("Candidates:          %d proposed, %d valid, %d dropped\n", r.Candidates, r.ValidTags, r.Dropped)
	if r.Reviews > 0 {
		fmt.Printf("Mean latency:        %dms\n", (r.TotalDuration / time.Duration(r.Reviews)).Milliseconds())
	}

	if len(r.AspectCounts) > 0 {
		fmt.Println("\nTags by aspect:")
		aspects := make([]string, 0, len(r.AspectCounts))
		for a := range r.AspectCounts {
			aspects = append(aspects, a)
		}
		sort.Strings(aspects)
		for _, a := range aspects {
			fmt.Printf("  %-16s %d\n", a, r.AspectCounts[a])
		}
	}

	fmt.Printf("\nFINAL SCORE: %d/100\n", r.Score)
}
