// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/gitbadges/gitbadges/internal/config"
	"github.com/gitbadges/gitbadges/internal/domain"
	"github.com/gitbadges/gitbadges/internal/gateway"
	"github.com/gitbadges/gitbadges/internal/retry"
)

// Aggregator is the use case for assembling a user's badge statistics.
// It orchestrates the fetching and combining of data. All fetches run
// sequentially to keep rate-limit pressure low; per-repository
// statistics that GitHub computes lazily go through the retry wrapper.
type Aggregator struct {
	source gateway.Source
	cfg    *config.Config
	policy retry.Policy
	logger *logrus.Logger

	// Repository list is fetched once per run and shared between the
	// overview and languages badges. Single-task access only.
	repos        []domain.Repository
	reposFetched bool
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(source gateway.Source, cfg *config.Config, policy retry.Policy, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		cfg:    cfg,
		policy: policy,
		logger: logger,
	}
}

// Overview assembles the inputs of the overview badge.
func (a *Aggregator) Overview(ctx context.Context) (*domain.Overview, error) {
	a.logger.Info("Usecase: Assembling overview statistics...")

	profile, err := retry.Do(ctx, a.logger, a.policy, "user profile", func(ctx context.Context) (domain.Profile, error) {
		return a.source.FetchProfile(ctx, a.cfg.User)
	})
	if err != nil {
		return nil, err
	}

	repos, err := a.repositories(ctx)
	if err != nil {
		return nil, err
	}

	var stargazers, forks int
	for _, repo := range repos {
		stargazers += repo.Stargazers
		forks += repo.Forks
	}

	contributions, err := a.contributions(ctx, profile.CreatedAt)
	if err != nil {
		return nil, err
	}

	var lines domain.LineDelta
	for _, repo := range repos {
		delta, err := retry.Do(ctx, a.logger, a.policy, fmt.Sprintf("lines changed for %s", repo.NameWithOwner), func(ctx context.Context) (domain.LineDelta, error) {
			return a.source.FetchLinesChanged(ctx, a.cfg.User, repo.NameWithOwner)
		})
		if err != nil {
			return nil, err
		}
		lines.Additions += delta.Additions
		lines.Deletions += delta.Deletions
	}

	views, err := a.views(ctx, repos)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Usecase: Overview statistics assembled.")
	return &domain.Overview{
		Name:          profile.DisplayName(),
		Stargazers:    stargazers,
		Forks:         forks,
		Contributions: contributions,
		Lines:         lines,
		Views:         views,
		RepoCount:     len(repos),
		DaysActive:    daysActive(profile.CreatedAt, time.Now()),
	}, nil
}

// Languages aggregates language bytes across all counted repositories
// and returns the records sorted by size, largest first. Records with
// equal sizes keep their first-seen order.
func (a *Aggregator) Languages(ctx context.Context) ([]domain.LanguageStat, error) {
	a.logger.Info("Usecase: Assembling language statistics...")

	repos, err := a.repositories(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	records := make([]domain.LanguageStat, 0)
	for _, repo := range repos {
		for _, lang := range repo.Languages {
			if _, excluded := a.cfg.ExcludedLangs[lang.Name]; excluded {
				continue
			}
			idx, ok := byName[lang.Name]
			if !ok {
				idx = len(records)
				byName[lang.Name] = idx
				records = append(records, domain.LanguageStat{Name: lang.Name, Color: lang.Color})
			}
			records[idx].Size += lang.Size
			if records[idx].Color == "" {
				records[idx].Color = lang.Color
			}
		}
	}

	sizes := make([]float64, len(records))
	for i, record := range records {
		sizes[i] = float64(record.Size)
	}
	if total, err := stats.Sum(sizes); err == nil && total > 0 {
		for i := range records {
			records[i].Prop = 100 * sizes[i] / total
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Size > records[j].Size
	})

	a.logger.Infof("Usecase: Language statistics assembled (%d languages).", len(records))
	return records, nil
}

// repositories returns the counted repository list: the fetched list
// minus the configured exclusions, fetched at most once per run.
func (a *Aggregator) repositories(ctx context.Context) ([]domain.Repository, error) {
	if a.reposFetched {
		return a.repos, nil
	}

	all, err := retry.Do(ctx, a.logger, a.policy, "repository list", func(ctx context.Context) ([]domain.Repository, error) {
		return a.source.FetchRepositories(ctx, a.cfg.User)
	})
	if err != nil {
		return nil, err
	}

	counted := make([]domain.Repository, 0, len(all))
	for _, repo := range all {
		if _, excluded := a.cfg.ExcludedRepos[repo.NameWithOwner]; excluded {
			continue
		}
		if a.cfg.IgnoreForks && repo.IsFork {
			continue
		}
		counted = append(counted, repo)
	}

	a.repos = counted
	a.reposFetched = true
	return counted, nil
}

// contributions sums the contribution calendar from account creation to
// now, one window per call since the API caps a window at one year.
func (a *Aggregator) contributions(ctx context.Context, created time.Time) (int, error) {
	total := 0
	now := time.Now()
	for from := created; from.Before(now); from = from.AddDate(1, 0, 0) {
		to := from.AddDate(1, 0, 0)
		if to.After(now) {
			to = now
		}
		count, err := retry.Do(ctx, a.logger, a.policy, fmt.Sprintf("contributions since %s", from.Format("2006-01-02")), func(ctx context.Context) (int, error) {
			return a.source.FetchContributions(ctx, a.cfg.User, from, to)
		})
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// views sums the 14-day traffic views over the counted repositories.
// Repositories the token has no push access to are skipped; the
// traffic endpoint only answers for repositories you can push to.
func (a *Aggregator) views(ctx context.Context, repos []domain.Repository) (int, error) {
	total := 0
	for _, repo := range repos {
		count, err := retry.Do(ctx, a.logger, a.policy, fmt.Sprintf("traffic views for %s", repo.NameWithOwner), func(ctx context.Context) (int, error) {
			return a.source.FetchViews(ctx, repo.NameWithOwner)
		})
		if err != nil {
			if gateway.IsForbidden(err) {
				a.logger.Debugf("Skipping traffic views for %s: no push access.", repo.NameWithOwner)
				continue
			}
			return 0, err
		}
		total += count
	}
	return total, nil
}

// daysActive is the calendar age of the account in days, never less
// than one so velocity division stays defined.
func daysActive(created, now time.Time) int {
	days := int(now.Sub(created).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
