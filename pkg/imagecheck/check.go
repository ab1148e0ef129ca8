package imagecheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docker/distribution"
	"github.com/docker/distribution/registry/api/errcode"
	"github.com/docker/distribution/registry/client/auth"
	"github.com/lensesio/tableprinter"
	digest "github.com/opencontainers/go-digest"
	imagereference "github.com/openshift/library-go/pkg/image/reference"
	"github.com/openshift/library-go/pkg/image/registryclient"
	"github.com/xxjwxc/gowp/workpool"
	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/imagestream"
)

// RepositoryFunc opens the repository of an image reference.
type RepositoryFunc func(ctx context.Context, ref imagereference.DockerImageReference) (distribution.Repository, error)

// Options checks that the images referenced by ImageStream tags exist.
type Options struct {
	concurrency int
	filter      *FilterOptions
	repository  RepositoryFunc
}

// Result is the outcome of checking one tag.
type Result struct {
	StreamName string
	Image      string
	Digest     digest.Digest
	Platforms  []string
	Err        error
}

// Unauthorized tells if the registry refused to show the image. Such an
// image may exist; it could not be checked with the credentials given.
func (r Result) Unauthorized() bool {
	return isUnauthorized(r.Err)
}

func isUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var errs errcode.Errors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if isUnauthorized(e) {
				return true
			}
		}
		return false
	}
	var e errcode.Error
	if errors.As(err, &e) {
		return e.Code == errcode.ErrorCodeUnauthorized || e.Code == errcode.ErrorCodeDenied
	}
	var code errcode.ErrorCode
	if errors.As(err, &code) {
		return code == errcode.ErrorCodeUnauthorized || code == errcode.ErrorCodeDenied
	}
	return false
}

// New returns checker options that talk to registries with the given
// credentials, or anonymously when credentials is nil.
func New(concurrency int, filter *FilterOptions, credentials auth.CredentialStore) *Options {
	registry := registryclient.NewContext(http.DefaultTransport, http.DefaultTransport)
	if credentials != nil {
		registry = registry.WithCredentials(credentials)
	}
	return NewWithRepository(concurrency, filter, func(ctx context.Context, ref imagereference.DockerImageReference) (distribution.Repository, error) {
		return registry.Repository(ctx, ref.RegistryURL(), ref.RepositoryName(), false)
	})
}

// NewWithRepository returns checker options using a custom repository source.
func NewWithRepository(concurrency int, filter *FilterOptions, repository RepositoryFunc) *Options {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Options{
		concurrency: concurrency,
		filter:      filter,
		repository:  repository,
	}
}

// Check resolves every registry image of the file. Tags pointing inside the
// ImageStream are skipped. Results keep the document order of the tags.
func (o *Options) Check(ctx context.Context, file *imagestream.File) []Result {
	var tags []imagestream.Tag
	for _, tag := range file.AllTags() {
		if tag.SourceKind() == imagestream.SourceDockerImage {
			tags = append(tags, tag)
		}
	}

	results := make([]Result, len(tags))
	wp := workpool.New(o.concurrency)
	for i := range tags {
		i := i
		wp.Do(func() error {
			result := Result{StreamName: tags[i].StreamName, Image: tags[i].Image}
			result.Digest, result.Platforms, result.Err = o.checkImage(ctx, tags[i].Image)
			results[i] = result
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		klog.Warningf("Image check of %s was interrupted: %v", file.Filename, err)
	}
	return results
}

func (o *Options) checkImage(ctx context.Context, image string) (digest.Digest, []string, error) {
	ref, err := imagereference.Parse(image)
	if err != nil {
		return "", nil, fmt.Errorf("invalid image reference: %v", err)
	}
	ref = ref.DockerClientDefaults()
	repo, err := o.repository(ctx, ref)
	if err != nil {
		return "", nil, fmt.Errorf("unable to connect to %s: %w", ref.Registry, err)
	}
	desc, err := repo.Tags(ctx).Get(ctx, ref.Tag)
	if err != nil {
		if isUnauthorized(err) {
			return "", nil, fmt.Errorf("unauthorized to read tag %q: %w", ref.Tag, err)
		}
		return "", nil, fmt.Errorf("tag %q not found: %w", ref.Tag, err)
	}
	manifests, err := repo.Manifests(ctx)
	if err != nil {
		return desc.Digest, nil, err
	}
	manifest, err := manifests.Get(ctx, desc.Digest, distribution.WithManifestMediaTypes(manifestMediaTypes))
	if err != nil {
		return desc.Digest, nil, fmt.Errorf("get manifest %s failed: %w", desc.Digest, err)
	}
	platforms, err := manifestPlatforms(ctx, manifest, repo.Blobs(ctx))
	if err != nil {
		return desc.Digest, nil, err
	}
	if !o.filter.Matches(platforms) {
		return desc.Digest, platforms, fmt.Errorf("no platform matches %q", o.filter.FilterByPlatform)
	}
	klog.V(2).Infof("Image %s resolved to %s (%s)", image, desc.Digest, strings.Join(platforms, ", "))
	return desc.Digest, platforms, nil
}

// Failed returns the results of images that are missing or do not match the
// platform filter. Images the registry refused to show are not included.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil && !r.Unauthorized() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Unauthorized returns the results of images that could not be checked
// because the registry asked for other credentials.
func Unauthorized(results []Result) []Result {
	var unauthorized []Result
	for _, r := range results {
		if r.Unauthorized() {
			unauthorized = append(unauthorized, r)
		}
	}
	return unauthorized
}

type resultRow struct {
	Tag       string `header:"Tag"`
	Image     string `header:"Image"`
	Digest    string `header:"Digest"`
	Platforms string `header:"Platforms"`
	Status    string `header:"Status"`
}

// PrintResults writes the results as a table.
func PrintResults(w io.Writer, results []Result) {
	rows := make([]resultRow, 0, len(results))
	for _, r := range results {
		row := resultRow{
			Tag:       r.StreamName,
			Image:     r.Image,
			Digest:    shortDigest(r.Digest),
			Platforms: strings.Join(r.Platforms, ", "),
			Status:    "ok",
		}
		switch {
		case r.Unauthorized():
			row.Status = "unauthorized"
		case r.Err != nil:
			row.Status = r.Err.Error()
		}
		rows = append(rows, row)
	}
	tableprinter.New(w).Print(rows)
}

// shortDigest keeps the algorithm and the first 12 characters of the hex.
func shortDigest(d digest.Digest) string {
	if len(d) == 0 {
		return ""
	}
	if err := d.Validate(); err != nil {
		return d.String()
	}
	hex := d.Encoded()
	if len(hex) > 12 {
		hex = hex[:12]
	}
	return fmt.Sprintf("%s:%s", d.Algorithm(), hex)
}
