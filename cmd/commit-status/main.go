package main

import (
	"context"
	"flag"

	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/ghclient"
)

func main() {
	var (
		organization string
		repository   string
		sha          string
		dryRun       bool
		status       ghclient.Status
	)

	klog.InitFlags(nil)
	flag.StringVar(&organization, "org", "sclorg", "GitHub organization owning the repository")
	flag.StringVar(&repository, "repo", "", "Repository name (eg. 's2i-nodejs-container')")
	flag.StringVar(&sha, "sha", "", "Commit to set the status on")
	flag.StringVar(&status.State, "state", ghclient.Success, "Status state: pending, success, error or failure")
	flag.StringVar(&status.TargetURL, "target-url", "", "URL the status links to (eg. a gist with the generated diff)")
	flag.StringVar(&status.Description, "description", "", "Short description of the status")
	flag.StringVar(&status.Context, "context", "diff", "Status context")
	flag.BoolVar(&dryRun, "dry-run", false, "Only log the status that would be set")
	flag.Parse()
	defer klog.Flush()

	switch {
	case len(sha) == 0:
		klog.Exit("ERROR: -sha is not specified.")
	case len(organization) == 0:
		klog.Exit("ERROR: -org, like sclorg, is not specified.")
	case len(repository) == 0:
		klog.Exit("ERROR: -repo, like s2i-nodejs-container, is not specified.")
	}
	if err := status.Validate(); err != nil {
		klog.Exit(err)
	}

	ctx := context.Background()
	client, err := ghclient.NewFromEnv(ctx, dryRun)
	if err != nil {
		klog.Exit(err)
	}
	if err := client.CreateStatus(ctx, organization, repository, sha, status); err != nil {
		klog.Exitf("unable to set status on %s/%s@%s: %v", organization, repository, sha, err)
	}
	klog.Infof("Status %q (%s) set on %s/%s@%s", status.State, status.Context, organization, repository, sha)
}
