package merger

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lensesio/tableprinter"
	"github.com/xxjwxc/gowp/workpool"
	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/ghclient"
)

const (
	ReadyLabel     = "READY-to-MERGE"
	approvedReview = "APPROVED"
)

// DefaultRepositories are the sclorg container repositories checked by default.
var DefaultRepositories = []string{
	"s2i-base-container",
	"s2i-nodejs-container",
	"s2i-python-container",
	"s2i-ruby-container",
	"s2i-perl-container",
	"s2i-php-container",
	"httpd-container",
	"nginx-container",
	"mariadb-container",
	"mysql-container",
	"postgresql-container",
	"redis-container",
	"valkey-container",
	"varnish-container",
}

// PullRequestLister lists open pull requests with their labels and reviews.
type PullRequestLister interface {
	ListOpenPullRequests(ctx context.Context, owner, repo string) ([]ghclient.PullRequest, error)
}

type Options struct {
	Organization string
	Repositories []string
	Approvals    int
	Since        time.Duration
	Concurrency  int
}

// Candidate is a pull request that is ready to be merged.
type Candidate struct {
	Repository string `header:"Repository"`
	Number     int    `header:"PR"`
	Title      string `header:"Title"`
	URL        string `header:"URL"`
	Updated    string `header:"Updated"`

	updated time.Time
}

// HasValidLabels tells if the labels allow merging. The ready label must be
// the only one set; any other label, such as pr/missing_review or
// pr/failing-ci, holds the pull request back.
func HasValidLabels(labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	for _, label := range labels {
		if label != ReadyLabel {
			return false
		}
	}
	return true
}

// HasEnoughApprovals tells if at least required reviews approved the change.
func HasEnoughApprovals(states []string, required int) bool {
	approvals := 0
	for _, state := range states {
		if state == approvedReview {
			approvals++
		}
	}
	klog.V(4).Infof("Approval count: %d", approvals)
	return approvals >= required
}

// readyToMerge returns the pull requests of one repository that can be merged.
func readyToMerge(repository string, pulls []ghclient.PullRequest, options Options, now time.Time) []Candidate {
	var candidates []Candidate
	for _, pr := range pulls {
		if options.Since > 0 && pr.GetUpdatedAt().Before(now.Add(-options.Since)) {
			klog.V(2).Infof("PR %d in %s was not updated since %s, skipping", pr.GetNumber(), repository, options.Since)
			continue
		}
		var labels []string
		for _, l := range pr.Labels {
			labels = append(labels, l.GetName())
		}
		if !HasValidLabels(labels) {
			klog.Infof("PR %d does not have valid flag to merging in repo %s.", pr.GetNumber(), repository)
			continue
		}
		var states []string
		for _, r := range pr.Reviews {
			states = append(states, r.GetState())
		}
		if !HasEnoughApprovals(states, options.Approvals) {
			klog.Infof("PR %d does not have enough APPROVALS to merging in repo %s.", pr.GetNumber(), repository)
			continue
		}
		candidates = append(candidates, Candidate{
			Repository: repository,
			Number:     pr.GetNumber(),
			Title:      pr.GetTitle(),
			URL:        pr.GetHTMLURL(),
			Updated:    humanize.RelTime(pr.GetUpdatedAt(), now, "ago", "from now"),
			updated:    pr.GetUpdatedAt(),
		})
	}
	return candidates
}

// FindCandidates checks all repositories concurrently. Repositories that
// cannot be listed are logged and skipped; the returned count tells how many.
func FindCandidates(ctx context.Context, client PullRequestLister, options Options) ([]Candidate, int) {
	concurrency := options.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	now := time.Now()
	wp := workpool.New(concurrency)
	var (
		candidates []Candidate
		failed     int
		lock       sync.Mutex
	)
	for i := range options.Repositories {
		repository := options.Repositories[i]
		wp.Do(func() error {
			pulls, err := client.ListOpenPullRequests(ctx, options.Organization, repository)
			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				klog.Errorf("Something went wrong with %s/%s: %v", options.Organization, repository, err)
				failed++
				return nil
			}
			found := readyToMerge(repository, pulls, options, now)
			if len(found) > 0 {
				klog.Infof("Pull requests that can be merged in %s: %v", repository, numbers(found))
			}
			candidates = append(candidates, found...)
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		klog.Errorf("Checking repositories was interrupted: %v", err)
	}

	// sort by repository, then by the least recently updated
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Repository != candidates[j].Repository {
			return candidates[i].Repository < candidates[j].Repository
		}
		return candidates[i].updated.Before(candidates[j].updated)
	})
	return candidates, failed
}

func numbers(candidates []Candidate) []int {
	var result []int
	for _, c := range candidates {
		result = append(result, c.Number)
	}
	return result
}

// PrintCandidates writes the candidates as a table.
func PrintCandidates(w io.Writer, candidates []Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No pull requests are ready to be merged.")
		return
	}
	tableprinter.New(w).Print(candidates)
}
