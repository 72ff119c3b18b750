// Command inspect runs the storm normalizer and rain classifier over saved
// upstream responses and reports what each stage kept and skipped.
//
// Usage:
//
//	go run ./cmd/inspect \
//	  -storms testdata/storms_20250924.json \
//	  -date 20250924 \
//	  -rain testdata/rainmap_realtime.json
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
)

// phase tracks pass/fail for an inspection phase.
type phase struct {
	name   string
	notes  []string
	errors []string
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	stormsPath := flag.String("storms", "", "path to a saved /api/date/{date}/storms response")
	date := flag.String("date", "", "date key (YYYYMMDD) the storms response belongs to")
	rainPath := flag.String("rain", "", "path to a saved /rainmap/realtime response")
	baseURL := flag.String("base-url", "http://localhost:8000", "base URL for storm image references")
	flag.Parse()

	if *stormsPath == "" && *rainPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*stormsPath, *date, *rainPath, *baseURL))
}

func run(stormsPath, rawDate, rainPath, baseURL string) int {
	fmt.Println("=== Storm Dashboard Feed Inspection ===")
	fmt.Println()

	var phases []*phase
	if stormsPath != "" {
		body, err := os.ReadFile(stormsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read storms file: %v\n", err)
			return 1
		}
		env, envPhase := inspectStormEnvelope(body)
		phases = append(phases, envPhase)
		if envPhase.passed() {
			phases = append(phases, inspectNormalization(env, rawDate, baseURL))
		}
	}
	if rainPath != "" {
		body, err := os.ReadFile(rainPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read rain file: %v\n", err)
			return 1
		}
		phases = append(phases, inspectRain(body))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll phases passed.")
		return 0
	}
	fmt.Println("\nInspection FAILED.")
	return 1
}

func inspectStormEnvelope(body []byte) (domain.StormEnvelope, *phase) {
	p := &phase{name: "Phase 1: Storm envelope"}
	env, err := domain.ParseStormEnvelope(body)
	if err != nil {
		p.errorf("%v", err)
		return env, p
	}
	p.notef("upstream date=%q directory=%q total_files=%d entries=%d", env.Date, env.Directory, env.TotalFiles, len(env.Entries))
	return env, p
}

func inspectNormalization(env domain.StormEnvelope, rawDate, baseURL string) *phase {
	p := &phase{name: "Phase 2: Storm normalization"}

	date, ok := domain.ParseDateKey(rawDate)
	if !ok {
		if rawDate != "" {
			p.errorf("date key %q is not a valid YYYYMMDD date", rawDate)
		}
		if parsed, ok := domain.ParseDateKey(env.Date); ok {
			date = parsed
			p.notef("using upstream date %s for image references", date)
		}
	}

	res := domain.NewNormalizer(baseURL).Normalize(env.Entries, date)
	for _, s := range res.Skipped {
		p.notef("skipped %q: %s", s.Key, s.Reason)
	}
	if len(res.Storms) == 0 {
		p.errorf("no storm-shaped entries among %d", len(env.Entries))
		return p
	}

	for _, s := range res.Storms {
		if s.Category < 1 || s.Category > 3 {
			p.errorf("storm %s: category %d out of range", s.ID, s.Category)
		}
		if s.IsInvestigationalDisturbance && s.Status != domain.StatusWatch {
			p.errorf("storm %s: invest without watch status", s.ID)
		}
		p.notef("%-8s %-16s cat=%d status=%-6s basin=%s", s.ID, s.Name, s.Category, s.Status, s.Basin.Label(domain.LanguageEnglish))
	}

	sum := domain.Summarize(res.Storms)
	p.notef("total=%d severe=%d watch=%d", sum.Total, sum.Severe, sum.Watch)
	basins := make([]string, 0, len(sum.ByBasin))
	for b := range sum.ByBasin {
		basins = append(basins, string(b))
	}
	sort.Strings(basins)
	for _, b := range basins {
		p.notef("basin %s: %d", b, sum.ByBasin[domain.Basin(b)])
	}
	return p
}

func inspectRain(body []byte) *phase {
	p := &phase{name: "Phase 3: Rain classification"}
	env, err := domain.ParseRainEnvelope(body)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	p.notef("timestamp=%q original_points=%d interpolated_points=%d samples=%d skipped=%d",
		env.Timestamp, env.OriginalPoints, env.InterpolatedPoints, len(env.Samples), env.Skipped)

	features := domain.Classify(env.Samples)
	counts := map[float64]int{}
	for i, f := range features {
		if f.ID != i {
			p.errorf("feature %d has id %d", i, f.ID)
		}
		counts[f.Bucket]++
	}
	for _, b := range []float64{domain.BucketNone, domain.BucketLight, domain.BucketHeavy} {
		p.notef("bucket %-3g (intensity %g): %d", b, b*domain.RampScale, counts[b])
	}
	return p
}
