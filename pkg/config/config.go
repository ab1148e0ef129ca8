package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// Header describes the application shared by every imagestream file.
type Header struct {
	Name        string `yaml:"name"`
	PrettyName  string `yaml:"pretty_name"`
	SampleRepo  string `yaml:"sample_repo"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Distro lists the application versions built on one distro. Versions are
// kept as written in the YAML document, so 3.10 stays "3.10".
type Distro struct {
	Name        string   `yaml:"name"`
	AppVersions []string `yaml:"app_versions"`
}

// CustomTag is a literal tag that is not derived from the distro expansion.
type CustomTag struct {
	Name       string `yaml:"name"`
	AppVersion string `yaml:"app_version"`
	Distro     string `yaml:"distro"`
}

// ImagestreamFile describes one generated ImageStream document.
type ImagestreamFile struct {
	Filename   string      `yaml:"filename"`
	Latest     string      `yaml:"latest"`
	Distros    []Distro    `yaml:"distros"`
	CustomTags []CustomTag `yaml:"custom_tags,omitempty"`
}

// Config is the first element of the YAML document.
type Config struct {
	Header           `yaml:",inline"`
	ImagestreamFiles []ImagestreamFile `yaml:"imagestream_files"`
}

// ConfigError is returned when the configuration cannot be used at all.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Loader reads a configuration file once and caches the result.
type Loader struct {
	path string
	data *Config
}

// NewLoader returns a loader for the YAML document at path. Nothing is read
// until Data is called.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Data returns the parsed configuration, reading the file on first use.
func (l *Loader) Data() (*Config, error) {
	if l.data != nil {
		return l.data, nil
	}
	raw, err := ioutil.ReadFile(l.path)
	if err != nil {
		return nil, &ConfigError{Path: l.path, Err: err}
	}
	data, err := Parse(raw)
	if err != nil {
		return nil, &ConfigError{Path: l.path, Err: err}
	}
	klog.V(2).Infof("Loaded %s with %d imagestream files", l.path, len(data.ImagestreamFiles))
	l.data = data
	return l.data, nil
}

// Parse decodes a YAML document whose top-level value is a non-empty
// sequence. Only the first element is used.
func Parse(raw []byte) (*Config, error) {
	var documents []Config
	if err := yaml.Unmarshal(raw, &documents); err != nil {
		return nil, fmt.Errorf("unable to parse YAML: %w", err)
	}
	if len(documents) == 0 {
		return nil, errors.New("top-level value must be a non-empty sequence")
	}
	config := &documents[0]
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var problems []string
	if len(c.Name) == 0 {
		problems = append(problems, "name is required")
	}
	for i, file := range c.ImagestreamFiles {
		if len(file.Filename) == 0 {
			problems = append(problems, fmt.Sprintf("imagestream_files[%d]: filename is required", i))
		}
		for j, d := range file.Distros {
			if len(d.Name) == 0 {
				problems = append(problems, fmt.Sprintf("imagestream_files[%d].distros[%d]: name is required", i, j))
			}
		}
		for j, custom := range file.CustomTags {
			if len(custom.Name) == 0 || len(custom.Distro) == 0 {
				problems = append(problems, fmt.Sprintf("imagestream_files[%d].custom_tags[%d]: name and distro are required", i, j))
			}
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
