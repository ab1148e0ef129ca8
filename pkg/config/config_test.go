package config

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoaderData(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		expected *Config
	}{
		{
			name: "minimal",
			path: "testdata/minimal.yml",
			expected: &Config{
				Header: Header{
					Name:        "test_pkg",
					PrettyName:  "Test Package",
					Category:    "testing",
					Description: "Let's test this!",
				},
				ImagestreamFiles: []ImagestreamFile{{
					Filename: "test-centos.json",
					Latest:   "2-el9",
					Distros: []Distro{
						{Name: "CentOS Stream 8", AppVersions: []string{"2", "3", "1"}},
						{Name: "CentOS Stream 9", AppVersions: []string{"2"}},
					},
				}},
			},
		},
		{
			name: "custom tags and dotted versions",
			path: "testdata/custom_tags.yml",
			expected: &Config{
				Header: Header{
					Name:        "python",
					PrettyName:  "Python",
					SampleRepo:  "https://github.com/sclorg/django-ex.git",
					Category:    "builder,python",
					Description: "Build and run Python APP_VERSION applications on DISTRO_NAME.",
				},
				ImagestreamFiles: []ImagestreamFile{{
					Filename: "python-rhel.json",
					Latest:   "3.12-ubi9",
					Distros: []Distro{
						{Name: "UBI 8", AppVersions: []string{"3.6", "3.12"}},
						{Name: "UBI 9", AppVersions: []string{"3.9", "3.12"}},
					},
					CustomTags: []CustomTag{{Name: "3.12-minimal-ubi9", AppVersion: "3.12", Distro: "UBI 9"}},
				}},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := NewLoader(tc.path).Data()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expected, data); diff != "" {
				t.Errorf("config differs from expected:\n%s", diff)
			}
		})
	}
}

func TestLoaderDataIsMemoized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	raw, err := ioutil.ReadFile("testdata/minimal.yml")
	if err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(path)
	first, err := loader.Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := loader.Data()
	if err != nil {
		t.Fatalf("second read was not served from cache: %v", err)
	}
	if first != second {
		t.Errorf("expected the cached configuration to be returned")
	}
}

func TestLoaderDataErrors(t *testing.T) {
	for _, path := range []string{
		"testdata/does-not-exist.yml",
		"testdata/malformed.yml",
		"testdata/mapping.yml",
		"testdata/empty.yml",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := NewLoader(path).Data()
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected a ConfigError, got %v", err)
			}
			if configErr.Path != path {
				t.Errorf("expected path %q in error, got %q", path, configErr.Path)
			}
		})
	}
}

func TestParseValidation(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "missing name",
			raw:      "- pretty_name: X\n",
			expected: "name is required",
		},
		{
			name:     "missing filename and distro name",
			raw:      "- name: x\n  imagestream_files:\n  - latest: 1-el8\n    distros:\n    - app_versions: [1]\n",
			expected: "imagestream_files[0]: filename is required, imagestream_files[0].distros[0]: name is required",
		},
		{
			name:     "custom tag without distro",
			raw:      "- name: x\n  imagestream_files:\n  - filename: x.json\n    custom_tags:\n    - name: custom\n",
			expected: "imagestream_files[0].custom_tags[0]: name and distro are required",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Error() != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, err.Error())
			}
		})
	}
}
