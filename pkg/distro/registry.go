package distro

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	imagereference "github.com/openshift/library-go/pkg/image/reference"
)

// Access selects which registry variant an image is pulled from.
type Access string

const (
	Public  Access = "public"
	Private Access = "private"

	// Placeholders substituted in image templates and descriptions.
	AppNamePlaceholder    = "APP_NAME"
	AppVersionPlaceholder = "APP_VERSION"
	DistroNamePlaceholder = "DISTRO_NAME"
)

// Registry maps distro names to image templates and stream name abbreviations.
// A Registry is never modified after it is built.
type Registry struct {
	Images            map[string]map[Access]string `yaml:"images"`
	Abbreviations     map[string]string            `yaml:"abbreviations"`
	LatestDescription string                       `yaml:"latest_description"`
}

const latestDescription = "\n\nWARNING: By selecting this tag," +
	" your application will automatically" +
	" update to use the latest version available on OpenShift," +
	" including major version updates.\n"

// Default returns the built-in registry of supported distros.
func Default() *Registry {
	return &Registry{
		Images: map[string]map[Access]string{
			"RHEL 8": {Private: "registry.redhat.io/rhel8/APP_NAME-APP_VERSION:latest"},
			"RHEL 9": {Private: "registry.redhat.io/rhel9/APP_NAME-APP_VERSION:latest"},
			"UBI 8": {
				Private: "registry.redhat.io/ubi8/APP_NAME-APP_VERSION:latest",
				Public:  "registry.access.redhat.com/ubi8/APP_NAME-APP_VERSION:latest",
			},
			"UBI 9": {
				Private: "registry.redhat.io/ubi9/APP_NAME-APP_VERSION:latest",
				Public:  "registry.access.redhat.com/ubi9/APP_NAME-APP_VERSION:latest",
			},
			"UBI 10": {
				Private: "registry.redhat.io/ubi10/APP_NAME-APP_VERSION:latest",
				Public:  "registry.access.redhat.com/ubi10/APP_NAME-APP_VERSION:latest",
			},
			"CentOS Stream 8":  {Public: "quay.io/sclorg/APP_NAME-APP_VERSION-c8s:latest"},
			"CentOS Stream 9":  {Public: "quay.io/sclorg/APP_NAME-APP_VERSION-c9s:latest"},
			"CentOS Stream 10": {Public: "quay.io/sclorg/APP_NAME-APP_VERSION-c10s:latest"},
		},
		Abbreviations: map[string]string{
			"RHEL 8":           "el8",
			"RHEL 9":           "el9",
			"RHEL 10":          "el10",
			"UBI 8":            "ubi8",
			"UBI 9":            "ubi9",
			"UBI 10":           "ubi10",
			"CentOS Stream 8":  "el8",
			"CentOS Stream 9":  "el9",
			"CentOS Stream 10": "el10",
		},
		LatestDescription: latestDescription,
	}
}

// Load reads a registry from a YAML file. Keys missing from the file keep
// their built-in values, so an override may only replace the image tables.
func Load(path string) (*Registry, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read distro registry %q: %w", path, err)
	}
	var override Registry
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("unable to parse distro registry %q: %w", path, err)
	}
	r := Default()
	if override.Images != nil {
		r.Images = override.Images
	}
	if override.Abbreviations != nil {
		r.Abbreviations = override.Abbreviations
	}
	if len(override.LatestDescription) > 0 {
		r.LatestDescription = override.LatestDescription
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("distro registry %q is invalid: %w", path, err)
	}
	klog.V(2).Infof("Loaded distro registry with %d distros from %s", len(r.Images), path)
	return r, nil
}

// Abbreviation returns the short stream name code of a distro, e.g. "el8".
func (r *Registry) Abbreviation(distroName string) (string, bool) {
	abbr, ok := r.Abbreviations[distroName]
	return abbr, ok
}

// Template returns the image template of a distro for the given access level.
func (r *Registry) Template(distroName string, access Access) (string, bool) {
	variants, ok := r.Images[distroName]
	if !ok {
		return "", false
	}
	template, ok := variants[access]
	return template, ok
}

// Distros returns the names of all distros with images, sorted.
func (r *Registry) Distros() []string {
	names := make([]string, 0, len(r.Images))
	for name := range r.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every template expands to a tagged image reference
// and that every distro with images can be abbreviated.
func (r *Registry) Validate() error {
	var problems []string
	for _, name := range r.Distros() {
		if _, ok := r.Abbreviations[name]; !ok {
			problems = append(problems, fmt.Sprintf("distro %q has no abbreviation", name))
		}
		variants := r.Images[name]
		for _, access := range []Access{Public, Private} {
			template, ok := variants[access]
			if !ok {
				continue
			}
			if !strings.Contains(template, AppNamePlaceholder) || !strings.Contains(template, AppVersionPlaceholder) {
				problems = append(problems, fmt.Sprintf("%s image of %q must contain %s and %s", access, name, AppNamePlaceholder, AppVersionPlaceholder))
				continue
			}
			sample := strings.NewReplacer(AppNamePlaceholder, "app", AppVersionPlaceholder, "10").Replace(template)
			ref, err := imagereference.Parse(sample)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s image of %q is not a valid reference: %v", access, name, err))
				continue
			}
			if len(ref.Tag) == 0 {
				problems = append(problems, fmt.Sprintf("%s image of %q has no tag", access, name))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
