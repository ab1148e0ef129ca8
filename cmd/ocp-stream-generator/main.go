package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/config"
	"github.com/sclorg/ci-scripts/pkg/distro"
	"github.com/sclorg/ci-scripts/pkg/imagecheck"
	"github.com/sclorg/ci-scripts/pkg/imagestream"
)

// exitInvalid is returned when the configuration argument is missing or a
// latest tag cannot be resolved.
const exitInvalid = 5

var errMissingConfig = errors.New("please provide YAML conf file as first parameter of this script")

type options struct {
	configPath     string
	outputDir      string
	distroRegistry string
	dryRun         bool
	verifyImages   bool
	registryConfig string
	concurrency    int
	filter         imagecheck.FilterOptions

	// repository replaces registry access when set
	repository imagecheck.RepositoryFunc
}

func (o *options) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.outputDir, "output-dir", "", "Directory relative filenames are written to (defaults to the working directory)")
	fs.StringVar(&o.distroRegistry, "distro-registry", "", "YAML file replacing the built-in distro images and abbreviations")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Print the generated ImageStreams instead of writing them")
	fs.BoolVar(&o.verifyImages, "verify-images", false, "Check that every referenced registry image exists")
	fs.StringVar(&o.registryConfig, "registry-config", "", "Docker config.json with the registry logins used by -verify-images (eg. for registry.redhat.io)")
	fs.IntVar(&o.concurrency, "concurrency", 10, "Number of registry lookups done at the same time")
	fs.StringVar(&o.filter.FilterByPlatform, "require-platform", "", "Regular expression a platform of every verified image must match (eg. 'linux/amd64')")
}

func (o *options) complete(args []string) error {
	if len(args) != 1 {
		return errMissingConfig
	}
	o.configPath = args[0]
	return o.filter.Validate()
}

func (o *options) registry() (*distro.Registry, error) {
	if len(o.distroRegistry) == 0 {
		return distro.Default(), nil
	}
	return distro.Load(o.distroRegistry)
}

func (o *options) checker() (*imagecheck.Options, error) {
	if o.repository != nil {
		return imagecheck.NewWithRepository(o.concurrency, &o.filter, o.repository), nil
	}
	if len(o.registryConfig) == 0 {
		return imagecheck.New(o.concurrency, &o.filter, nil), nil
	}
	credentials, err := imagecheck.LoadCredentials(o.registryConfig)
	if err != nil {
		return nil, err
	}
	return imagecheck.New(o.concurrency, &o.filter, credentials), nil
}

func (o *options) outputPath(filename string) string {
	if len(o.outputDir) == 0 || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(o.outputDir, filename)
}

// run generates every imagestream file of the configuration. It stops at the
// first file that cannot be assembled; files written before stay in place.
// Generated documents go to stdout in dry-run mode, verification reports
// always go to stderr.
func (o *options) run(ctx context.Context, stdout, stderr io.Writer) error {
	registry, err := o.registry()
	if err != nil {
		return err
	}
	data, err := config.NewLoader(o.configPath).Data()
	if err != nil {
		return err
	}

	var checker *imagecheck.Options
	if o.verifyImages {
		if checker, err = o.checker(); err != nil {
			return err
		}
	}
	var missing, unauthorized int
	for _, spec := range data.ImagestreamFiles {
		file, err := imagestream.Assemble(spec, data.Header, registry)
		if err != nil {
			return err
		}
		output, err := imagestream.GenerateJSON(file)
		if err != nil {
			return err
		}
		if o.dryRun {
			if _, err := stdout.Write(output); err != nil {
				return err
			}
		} else if err := writeFile(o.outputPath(file.Filename), output); err != nil {
			return err
		}
		if checker != nil {
			results := checker.Check(ctx, file)
			imagecheck.PrintResults(stderr, results)
			missing += len(imagecheck.Failed(results))
			unauthorized += len(imagecheck.Unauthorized(results))
		}
	}
	switch {
	case missing > 0 && unauthorized > 0:
		return fmt.Errorf("%d referenced images are missing, %d more could not be checked without registry credentials (see -registry-config)", missing, unauthorized)
	case missing > 0:
		return fmt.Errorf("%d referenced images are missing", missing)
	case unauthorized > 0:
		return fmt.Errorf("%d referenced images could not be checked without registry credentials (see -registry-config)", unauthorized)
	}
	return nil
}

func writeFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}
	if err := ioutil.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	klog.Infof("Wrote %s", path)
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var latestErr *imagestream.LatestResolutionError
	if errors.Is(err, errMissingConfig) || errors.As(err, &latestErr) {
		return exitInvalid
	}
	return 1
}

func main() {
	o := &options{}
	klog.InitFlags(nil)
	o.bind(flag.CommandLine)
	flag.Parse()

	err := o.complete(flag.Args())
	if err == nil {
		err = o.run(context.Background(), os.Stdout, os.Stderr)
	}
	if err != nil {
		klog.Error(err)
	}
	klog.Flush()
	os.Exit(exitCode(err))
}
