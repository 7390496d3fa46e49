package models

import (
	"strings"
	"time"
)

// Runtime is the running time of a movie split into its components.
type Runtime struct {
	Hours   int `json:"hours" bson:"hours"`
	Minutes int `json:"minutes" bson:"minutes"`
	Seconds int `json:"seconds" bson:"seconds"`
}

// Review is a single user rating embedded in its parent movie.
type Review struct {
	UserID  string    `json:"user" bson:"user"`
	Name    string    `json:"name" bson:"name"`
	Rating  int       `json:"rating" bson:"rating"`
	Comment string    `json:"comment" bson:"comment"`
	Date    time.Time `json:"date" bson:"date"`
}

// Movie is a catalog entry, usually hydrated from OMDb on first lookup.
type Movie struct {
	ID           string     `json:"_id" bson:"-"`
	Title        string     `json:"title" bson:"title"`
	Year         string     `json:"year" bson:"year"`
	Genre        []string   `json:"genre" bson:"genre"`
	Writer       string     `json:"writer" bson:"writer"`
	Director     string     `json:"director" bson:"director"`
	Released     *time.Time `json:"released" bson:"released"`
	RunTime      Runtime    `json:"runTime" bson:"runTime"`
	Actors       []string   `json:"actors" bson:"actors"`
	Language     string     `json:"language" bson:"language"`
	Plot         string     `json:"plot" bson:"plot"`
	Country      string     `json:"country" bson:"country"`
	Poster       string     `json:"poster" bson:"poster"`
	PosterMirror string     `json:"posterMirror,omitempty" bson:"posterMirror,omitempty"`
	Awards       string     `json:"awards" bson:"awards"`
	ImdbRating   float64    `json:"imdbRating" bson:"imdbRating"`
	Type         string     `json:"type" bson:"type"`
	BoxOffice    string     `json:"boxOffice" bson:"boxOffice"`
	Production   string     `json:"production" bson:"production"`
	ImdbVotes    int        `json:"imdbVotes" bson:"imdbVotes"`
	MetaScore    int        `json:"metaScore" bson:"metaScore"`
	Ratings      float64    `json:"ratings" bson:"ratings"`
	NoOfReviews  int        `json:"noOfReviews" bson:"noOfReviews"`
	Reviews      []Review   `json:"reviews" bson:"reviews"`
	Version      int        `json:"version" bson:"version"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TitleKey is the case-folded title used for unique lookups.
func (m Movie) TitleKey() string {
	return NormalizeKey(m.Title)
}

// GenreKeys returns the case-folded genres used for listing queries.
func (m Movie) GenreKeys() []string {
	keys := make([]string, 0, len(m.Genre))
	for _, g := range m.Genre {
		if k := NormalizeKey(g); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// SplitList splits a comma separated value into trimmed, non-empty items.
// "N/A" yields an empty list.
func SplitList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeKey trims and lowercases a lookup value.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserStatusPending UserStatus = "Pending"
	UserStatusActive  UserStatus = "Active"
)

// User represents an account within the movie catalog.
type User struct {
	ID           string     `json:"_id" bson:"-"`
	Username     string     `json:"username" bson:"username"`
	Email        string     `json:"email" bson:"email"`
	FullName     string     `json:"fullName" bson:"fullName"`
	Password     string     `json:"-" bson:"password"`
	Status       UserStatus `json:"status" bson:"status"`
	RefreshToken string     `json:"-" bson:"refreshToken,omitempty"`
	LoginDate    *time.Time `json:"loginDate,omitempty" bson:"loginDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsActive reports whether the account has completed verification.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
