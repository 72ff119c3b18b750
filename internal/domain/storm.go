package domain

import "time"

// Status is the derived alert state of a storm.
type Status string

const (
	StatusActive Status = "active"
	StatusWatch  Status = "watch"
)

// Basin is the canonical code of the ocean region a storm formed in.
type Basin string

const (
	BasinNorthAtlantic Basin = "north_atlantic"
	BasinEastPacific   Basin = "east_pacific"
)

const (
	LanguageEnglish = "en"
	LanguageSpanish = "es"
)

var basinLabels = map[string]map[Basin]string{
	LanguageEnglish: {
		BasinNorthAtlantic: "North Atlantic",
		BasinEastPacific:   "East Pacific",
	},
	LanguageSpanish: {
		BasinNorthAtlantic: "Atlántico Norte",
		BasinEastPacific:   "Pacífico Este",
	},
}

// Label returns the display label for the basin in lang. Unknown languages
// fall back to English and unknown basins to the raw code.
func (b Basin) Label(lang string) string {
	labels, ok := basinLabels[lang]
	if !ok {
		labels = basinLabels[LanguageEnglish]
	}
	if label, ok := labels[b]; ok {
		return label
	}
	return string(b)
}

// SupportedLanguage reports whether lang has a basin label table.
func SupportedLanguage(lang string) bool {
	_, ok := basinLabels[lang]
	return ok
}

// Storm is the canonical storm entity built by [Normalizer].
type Storm struct {
	ID                           string   `json:"id"`
	Name                         string   `json:"name"`
	Category                     int      `json:"category"`
	WindSpeed                    float64  `json:"wind_speed"`
	Pressure                     float64  `json:"pressure"`
	Basin                        Basin    `json:"basin"`
	Year                         int      `json:"year"`
	Season                       int      `json:"season"`
	ACE                          float64  `json:"ace"`
	IsInvestigationalDisturbance bool     `json:"invest"`
	StormTypeHistory             []string `json:"storm_type"`
	Status                       Status   `json:"status"`
	ImageRef                     string   `json:"image_ref"`
}

// Severe reports whether the storm is at hurricane strength.
func (s Storm) Severe() bool { return s.Category >= 3 }

// Snapshot is the full storm list fetched for one date.
type Snapshot struct {
	Date      DateKey   `json:"date"`
	Storms    []Storm   `json:"storms"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewSnapshot stamps storms with the current clock time.
func NewSnapshot(date DateKey, storms []Storm) Snapshot {
	return Snapshot{Date: date, Storms: storms, FetchedAt: clock.Now().UTC()}
}

// Summary holds the dashboard headline counts for a snapshot.
type Summary struct {
	Total   int           `json:"total"`
	Severe  int           `json:"severe"`
	Watch   int           `json:"watch"`
	ByBasin map[Basin]int `json:"by_basin"`
}

// Summarize counts storms by severity, status, and basin.
func Summarize(storms []Storm) Summary {
	s := Summary{Total: len(storms), ByBasin: make(map[Basin]int)}
	for i := range storms {
		if storms[i].Severe() {
			s.Severe++
		}
		if storms[i].Status == StatusWatch {
			s.Watch++
		}
		s.ByBasin[storms[i].Basin]++
	}
	return s
}
