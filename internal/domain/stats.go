// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"time"
)

// ErrNotReady marks a statistic the upstream API is still computing.
// GitHub answers such requests with 202 Accepted; callers are expected
// to back off and ask again.
var ErrNotReady = errors.New("statistics not ready yet")

// Profile holds the identity of the user the badges are generated for.
type Profile struct {
	Login     string
	Name      string
	CreatedAt time.Time
}

// DisplayName returns the profile name, falling back to the login when
// the user has not set one.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}

// RepoLanguage is a single language slice of one repository.
type RepoLanguage struct {
	Name  string
	Size  int64
	Color string
}

// Repository holds the per-repository counts the aggregator works on.
type Repository struct {
	NameWithOwner string
	IsFork        bool
	Stargazers    int
	Forks         int
	Languages     []RepoLanguage
}

// LineDelta is the lines-changed tuple reported by the contributor
// statistics endpoint.
type LineDelta struct {
	Additions int64
	Deletions int64
}

// Total returns the combined number of changed lines.
func (d LineDelta) Total() int64 {
	return d.Additions + d.Deletions
}

// LanguageStat is one aggregated language usage record.
// Prop is the language's percentage share of all counted bytes.
type LanguageStat struct {
	Name  string
	Size  int64
	Color string
	Prop  float64
}

// Overview is the assembled input of the overview badge.
type Overview struct {
	Name          string
	Stargazers    int
	Forks         int
	Contributions int
	Lines         LineDelta
	Views         int
	RepoCount     int
	DaysActive    int
}
