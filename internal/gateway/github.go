// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/gitbadges/gitbadges/internal/domain"
)

// Source defines the behavior of a gateway for fetching a user's
// statistics from GitHub.
type Source interface {
	FetchProfile(ctx context.Context, login string) (domain.Profile, error)
	FetchRepositories(ctx context.Context, login string) ([]domain.Repository, error)
	FetchContributions(ctx context.Context, login string, from, to time.Time) (int, error)
	FetchLinesChanged(ctx context.Context, login, nameWithOwner string) (domain.LineDelta, error)
	FetchViews(ctx context.Context, nameWithOwner string) (int, error)
}

// GitHubGateway is the concrete implementation of the Source interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *logrus.Logger
}

// profileQuery fetches the user's display name and account age.
type profileQuery struct {
	User struct {
		Login     string
		Name      string
		CreatedAt githubv4.DateTime
	} `graphql:"user(login: $login)"`
}

// repositoryNode is the repository shape shared by the owned and
// contributed-to queries, including per-language byte counts.
type repositoryNode struct {
	NameWithOwner  string
	IsFork         bool
	StargazerCount int
	ForkCount      int
	Languages      struct {
		Edges []struct {
			Size int
			Node struct {
				Name  string
				Color string
			}
		}
	} `graphql:"languages(first: 100, orderBy: {field: SIZE, direction: DESC})"`
}

type ownedRepositoriesQuery struct {
	User struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []repositoryNode
		} `graphql:"repositories(first: 100, after: $cursor, ownerAffiliations: OWNER)"`
	} `graphql:"user(login: $login)"`
}

type contributedRepositoriesQuery struct {
	User struct {
		RepositoriesContributedTo struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []repositoryNode
		} `graphql:"repositoriesContributedTo(first: 100, after: $cursor, includeUserRepositories: false, contributionTypes: [COMMIT, PULL_REQUEST, REPOSITORY])"`
	} `graphql:"user(login: $login)"`
}

// contributionsQuery fetches the calendar total for one window.
// The API caps the window at one year; callers iterate.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway builds a gateway whose REST and GraphQL clients
// share one HTTP client: a static oauth2 token source layered over a
// rate-limit-aware transport, with a single overall request timeout.
func NewGitHubGateway(token string, timeout time.Duration, logger *logrus.Logger) (Source, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) FetchProfile(ctx context.Context, login string) (domain.Profile, error) {
	g.logger.Debug("Fetching user profile...")
	var q profileQuery
	variables := map[string]interface{}{"login": githubv4.String(login)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to fetch profile for %s: %w", login, err)
	}
	return domain.Profile{
		Login:     q.User.Login,
		Name:      q.User.Name,
		CreatedAt: q.User.CreatedAt.Time,
	}, nil
}

// FetchRepositories returns the user's own repositories followed by
// repositories contributed to, deduplicated by full name.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	g.logger.Debug("Fetching repository list...")

	var repos []domain.Repository
	seen := make(map[string]struct{})
	appendNodes := func(nodes []repositoryNode) {
		for _, node := range nodes {
			if _, ok := seen[node.NameWithOwner]; ok {
				continue
			}
			seen[node.NameWithOwner] = struct{}{}
			repos = append(repos, toRepository(node))
		}
	}

	variables := map[string]interface{}{
		"login":  githubv4.String(login),
		"cursor": (*githubv4.String)(nil),
	}
	for {
		var q ownedRepositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to fetch owned repositories: %w", err)
		}
		appendNodes(q.User.Repositories.Nodes)
		if !q.User.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.User.Repositories.PageInfo.EndCursor)
		g.logger.Debug("  Fetching next page of owned repositories...")
	}

	variables["cursor"] = (*githubv4.String)(nil)
	for {
		var q contributedRepositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to fetch contributed repositories: %w", err)
		}
		appendNodes(q.User.RepositoriesContributedTo.Nodes)
		if !q.User.RepositoriesContributedTo.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.User.RepositoriesContributedTo.PageInfo.EndCursor)
		g.logger.Debug("  Fetching next page of contributed repositories...")
	}

	g.logger.Debugf("Completed fetching repository list (%d repositories).", len(repos))
	return repos, nil
}

func (g *GitHubGateway) FetchContributions(ctx context.Context, login string, from, to time.Time) (int, error) {
	var q contributionsQuery
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to fetch contributions: %w", err)
	}
	return q.User.ContributionsCollection.ContributionCalendar.TotalContributions, nil
}

// FetchLinesChanged sums the user's weekly additions and deletions for
// one repository. GitHub computes contributor statistics lazily and
// answers 202 Accepted until they are ready; that case is reported as
// domain.ErrNotReady so callers can back off and retry.
func (g *GitHubGateway) FetchLinesChanged(ctx context.Context, login, nameWithOwner string) (domain.LineDelta, error) {
	owner, name, err := splitFullName(nameWithOwner)
	if err != nil {
		return domain.LineDelta{}, err
	}
	contributors, _, err := g.restClient.Repositories.ListContributorsStats(ctx, owner, name)
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return domain.LineDelta{}, fmt.Errorf("contributor stats for %s: %w", nameWithOwner, domain.ErrNotReady)
		}
		return domain.LineDelta{}, fmt.Errorf("failed to fetch contributor stats for %s: %w", nameWithOwner, err)
	}

	var delta domain.LineDelta
	for _, contributor := range contributors {
		if !strings.EqualFold(contributor.GetAuthor().GetLogin(), login) {
			continue
		}
		for _, week := range contributor.Weeks {
			delta.Additions += int64(week.GetAdditions())
			delta.Deletions += int64(week.GetDeletions())
		}
	}
	return delta, nil
}

func (g *GitHubGateway) FetchViews(ctx context.Context, nameWithOwner string) (int, error) {
	owner, name, err := splitFullName(nameWithOwner)
	if err != nil {
		return 0, err
	}
	traffic, _, err := g.restClient.Repositories.ListTrafficViews(ctx, owner, name, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch traffic views for %s: %w", nameWithOwner, err)
	}
	return traffic.GetCount(), nil
}

// IsForbidden reports whether err is a GitHub 403, which the traffic
// endpoint returns for repositories the token has no push access to.
func IsForbidden(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) &&
		errResp.Response != nil &&
		errResp.Response.StatusCode == http.StatusForbidden
}

func toRepository(node repositoryNode) domain.Repository {
	repo := domain.Repository{
		NameWithOwner: node.NameWithOwner,
		IsFork:        node.IsFork,
		Stargazers:    node.StargazerCount,
		Forks:         node.ForkCount,
	}
	for _, edge := range node.Languages.Edges {
		repo.Languages = append(repo.Languages, domain.RepoLanguage{
			Name:  edge.Node.Name,
			Size:  int64(edge.Size),
			Color: edge.Node.Color,
		})
	}
	return repo
}

func splitFullName(nameWithOwner string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(nameWithOwner, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", nameWithOwner)
	}
	return owner, name, nil
}
