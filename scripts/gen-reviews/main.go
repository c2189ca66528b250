// gen-reviews writes a synthetic pilot review snapshot in the JSONL format
// "fieldscore build -reviews" consumes, one review object per line.
//
// The prose is assembled from aspect-flavored phrase banks so the default
// ontology's extractor has real signal to find. Good enough to exercise the
// full pipeline against a live endpoint or to load-test the store; not a
// substitute for real reviews when judging extraction quality.
//
// Usage: go run ./scripts/gen-reviews -airports 25 -per-airport 8 -out reviews.jsonl
//
// A fixed -seed reproduces the same snapshot, which incremental-build testing
// relies on.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Phrases are grouped by the ontology aspect they carry signal for. Each
// review samples a few groups so extraction has mixed, partial coverage the
// way real reviews do.
var phraseBank = map[string][]string{
	"cost": {
		"Landing fee was 12 euros and overnight parking was free.",
		"They wanted 45 euros for a short stop, outrageous for a grass strip.",
		"Fees were about what you'd expect for a field this size.",
		"Cheapest avgas in the region, worth the detour.",
	},
	"bureaucracy": {
		"No PPR needed, we just showed up.",
		"PPR by phone the day before, they answered immediately.",
		"Customs took an hour of forms for a twenty minute stop.",
		"Slot, PPR and a handling agent for a C172. Never again.",
	},
	"hospitality": {
		"The man in the C office walked us over to the restaurant himself.",
		"Nobody even looked up when we walked in.",
		"Tower was grumpy about our late arrival but the ground crew was kind.",
		"Felt genuinely welcome from first call to departure.",
	},
	"food": {
		"The restaurant on the field does a great schnitzel.",
		"Only a coffee machine in the briefing room.",
		"Nothing to eat on the field, bring sandwiches.",
	},
	"fun": {
		"Worth flying in just for the approach over the lake.",
		"Nice enough for a fuel stop but nothing to see.",
		"The whole family wants to go back.",
	},
	"facilities": {
		"Brand new apron and a proper briefing room.",
		"Runway is fine but everything else is falling apart.",
		"Showers, crew car, solid wifi. Better equipped than my home base.",
	},
}

func main() {
	airports := flag.Int("airports", 25, "number of distinct airports")
	perAirport := flag.Int("per-airport", 8, "average reviews per airport")
	out := flag.String("out", "reviews.jsonl", "output file")
	seed := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	if *airports < 1 || *perAirport < 1 {
		fmt.Fprintln(os.Stderr, "airports and per-airport must be at least 1")
		os.Exit(2)
	}

	f := gofakeit.New(*seed)

	file, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w) // Encode appends \n, which is exactly JSONL

	seen := make(map[string]bool)
	total := 0
	for i := 0; i < *airports; i++ {
		ident := icaoIdent(f)
		for seen[ident] {
			ident = icaoIdent(f)
		}
		seen[ident] = true

		n := f.Number(1, 2**perAirport-1)
		for j := 0; j < n; j++ {
			if err := enc.Encode(fakeReview(f, ident)); err != nil {
				fmt.Fprintf(os.Stderr, "write review: %v\n", err)
				os.Exit(1)
			}
			total++
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d reviews for %d airports to %s\n", total, *airports, *out)
}

// icaoIdent builds a European-looking four letter ident. Region prefixes
// keep the output plausible without copying the real location indicator
// allocation.
func icaoIdent(f *gofakeit.Faker) string {
	prefixes := []string{"ED", "EH", "EB", "EK", "ES", "LF", "LS", "LO", "LI", "LK"}
	return f.RandomString(prefixes) + strings.ToUpper(f.LetterN(2))
}

func fakeReview(f *gofakeit.Faker, ident string) models.RawReview {
	aspects := make([]string, 0, len(phraseBank))
	for a := range phraseBank {
		aspects = append(aspects, a)
	}
	// Map iteration order would break seeded reproducibility.
	sort.Strings(aspects)

	var sentences []string
	for _, a := range aspects {
		if f.Number(0, 99) < 55 {
			sentences = append(sentences, f.RandomString(phraseBank[a]))
		}
	}
	if len(sentences) == 0 {
		sentences = append(sentences, f.RandomString(phraseBank["cost"]))
	}

	observed := f.DateRange(time.Now().AddDate(-2, 0, 0), time.Now())
	rating := float64(f.Number(1, 5))

	return models.RawReview{
		AirportIdent: ident,
		ReviewID:     f.UUID(),
		Text:         strings.Join(sentences, " "),
		Rating:       &rating,
		ObservedAt:   &observed,
		Language:     "en",
		AIGenerated:  f.Number(0, 99) < 5,
	}
}
