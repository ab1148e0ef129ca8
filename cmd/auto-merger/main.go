package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xhit/go-str2duration/v2"
	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/ghclient"
	"github.com/sclorg/ci-scripts/pkg/merger"
)

func main() {
	var (
		organization string
		repositories string
		since        string
		approvals    int
		concurrency  int
	)

	klog.InitFlags(nil)
	flag.StringVar(&organization, "org", "sclorg", "GitHub organization owning the repositories")
	flag.StringVar(&repositories, "repos", strings.Join(merger.DefaultRepositories, ","), "Comma separated list of repositories to check")
	flag.StringVar(&since, "since", "", "Only consider pull requests updated within this time (eg. '7d', '48h', ...)")
	flag.IntVar(&approvals, "approvals", 2, "Number of approving reviews a pull request needs")
	flag.IntVar(&concurrency, "concurrency", 10, "Number of repositories checked at the same time")
	flag.Parse()
	defer klog.Flush()

	options := merger.Options{
		Organization: organization,
		Approvals:    approvals,
		Concurrency:  concurrency,
	}
	for _, r := range strings.Split(repositories, ",") {
		if r = strings.TrimSpace(r); len(r) > 0 {
			options.Repositories = append(options.Repositories, r)
		}
	}
	if len(since) > 0 {
		var err error
		options.Since, err = str2duration.ParseDuration(since)
		if err != nil {
			klog.Exitf(":-( I am unable to parse duration %q (must be like 1h or 1d...)", since)
		}
	}

	ctx := context.Background()
	client, err := ghclient.NewFromEnv(ctx, true)
	if err != nil {
		klog.Exit(err)
	}

	candidates, failed := merger.FindCandidates(ctx, client, options)
	merger.PrintCandidates(os.Stdout, candidates)

	fmt.Printf("\n%d repositories in %s checked for pull requests ready to merge, %d failed\n", len(options.Repositories), options.Organization, failed)
	if failed > 0 {
		klog.Flush()
		os.Exit(1)
	}
}
