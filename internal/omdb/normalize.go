package omdb

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Taswoor2507/movie-api/internal/models"
)

const (
	notAvailable   = "N/A"
	releasedLayout = "02 Jan 2006"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*h`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*min`)
)

// Normalize converts an OMDb record into the catalog's movie shape.
func Normalize(r Record) models.Movie {
	return models.Movie{
		Title:       strings.TrimSpace(r.Title),
		Year:        r.Year,
		Genre:       models.SplitList(r.Genre),
		Writer:      r.Writer,
		Director:    r.Director,
		Released:    parseReleased(r.Released),
		RunTime:     ParseRuntime(r.Runtime),
		Actors:      models.SplitList(r.Actors),
		Language:    r.Language,
		Plot:        r.Plot,
		Country:     r.Country,
		Poster:      r.Poster,
		Awards:      r.Awards,
		ImdbRating:  parseFloat(r.ImdbRating),
		Type:        r.Type,
		BoxOffice:   r.BoxOffice,
		Production:  defaultString(r.Production, notAvailable),
		ImdbVotes:   parseInt(r.ImdbVotes),
		MetaScore:   parseInt(r.Metascore),
		Reviews:     []models.Review{},
		Ratings:     0,
		NoOfReviews: 0,
	}
}

// ParseRuntime understands "148 min" and "2h 28min"; minutes beyond an hour are
// carried into Hours.
func ParseRuntime(value string) models.Runtime {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == strings.ToLower(notAvailable) {
		return models.Runtime{}
	}

	var hours, minutes int
	if m := hoursPattern.FindStringSubmatch(value); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := minutesPattern.FindStringSubmatch(value); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}

	hours += minutes / 60
	minutes %= 60
	return models.Runtime{Hours: hours, Minutes: minutes}
}

func parseReleased(value string) *time.Time {
	t, err := time.Parse(releasedLayout, strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(value string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
