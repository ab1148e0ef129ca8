package imagestream

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sclorg/ci-scripts/pkg/config"
	"github.com/sclorg/ci-scripts/pkg/distro"
)

var testHeader = config.Header{
	Name:        "test",
	PrettyName:  "Test",
	Category:    "test",
	Description: "test description",
}

func TestNewVersionedTag(t *testing.T) {
	tag, err := NewVersionedTag(testHeader, distro.Default(), "RHEL 8", distro.Private, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Tag{
		Kind:          Versioned,
		AppVersion:    "1",
		DistroName:    "RHEL 8",
		Image:         "registry.redhat.io/rhel8/test-1:latest",
		StreamName:    "1-el8",
		Description:   "test description",
		DisplayName:   "Test 1 (RHEL 8)",
		Category:      "test",
		AppName:       "test",
		AppPrettyName: "Test",
		RepoAccess:    distro.Private,
	}
	if diff := cmp.Diff(expected, tag); diff != "" {
		t.Errorf("tag differs from expected:\n%s", diff)
	}
	if tag.SourceKind() != SourceDockerImage {
		t.Errorf("expected source kind %s, got %s", SourceDockerImage, tag.SourceKind())
	}
}

func TestStreamNameForEveryDistro(t *testing.T) {
	registry := distro.Default()
	for _, name := range registry.Distros() {
		abbr, _ := registry.Abbreviation(name)
		access := distro.Private
		if _, ok := registry.Template(name, access); !ok {
			access = distro.Public
		}
		for v := 0; v < 25; v++ {
			version := fmt.Sprint(v)
			tag, err := NewVersionedTag(testHeader, registry, name, access, version)
			if err != nil {
				t.Fatalf("%s %s: unexpected error: %v", name, version, err)
			}
			if expected := version + "-" + abbr; tag.StreamName != expected {
				t.Errorf("%s %s: expected stream name %q, got %q", name, version, expected, tag.StreamName)
			}
		}
	}
}

func TestVersionedTagSubstitutions(t *testing.T) {
	header := config.Header{
		Name:        "nodejs",
		PrettyName:  "Node.js",
		Category:    "builder,nodejs",
		SampleRepo:  "https://github.com/sclorg/nodejs-ex.git",
		Description: "Build and run Node.js APP_VERSION applications on DISTRO_NAME.",
	}
	tag, err := NewVersionedTag(header, distro.Default(), "UBI 9", distro.Public, "22.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expected := "registry.access.redhat.com/ubi9/nodejs-221:latest"; tag.Image != expected {
		t.Errorf("expected image %q, got %q", expected, tag.Image)
	}
	if expected := "22.1-ubi9"; tag.StreamName != expected {
		t.Errorf("expected stream name %q, got %q", expected, tag.StreamName)
	}
	if expected := "Build and run Node.js 22.1 applications on UBI 9."; tag.Description != expected {
		t.Errorf("expected description %q, got %q", expected, tag.Description)
	}
	if expected := "Node.js 22.1 (UBI 9)"; tag.DisplayName != expected {
		t.Errorf("expected display name %q, got %q", expected, tag.DisplayName)
	}
	if tag.SampleRepo != header.SampleRepo {
		t.Errorf("expected sample repo %q, got %q", header.SampleRepo, tag.SampleRepo)
	}
}

func TestNewVersionedTagUnknownDistro(t *testing.T) {
	testCases := []struct {
		name     string
		distro   string
		access   distro.Access
		expected UnknownDistroError
	}{
		{
			name:     "not in the registry",
			distro:   "RHEL 7",
			access:   distro.Private,
			expected: UnknownDistroError{Distro: "RHEL 7"},
		},
		{
			name:     "no image for access level",
			distro:   "CentOS Stream 9",
			access:   distro.Private,
			expected: UnknownDistroError{Distro: "CentOS Stream 9", Access: distro.Private},
		},
		{
			name:     "abbreviation without images",
			distro:   "RHEL 10",
			access:   distro.Private,
			expected: UnknownDistroError{Distro: "RHEL 10", Access: distro.Private},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVersionedTag(testHeader, distro.Default(), tc.distro, tc.access, "1")
			var unknown *UnknownDistroError
			if !errors.As(err, &unknown) {
				t.Fatalf("expected UnknownDistroError, got %v", err)
			}
			if diff := cmp.Diff(tc.expected, *unknown); diff != "" {
				t.Errorf("error differs from expected:\n%s", diff)
			}
		})
	}
}

func TestNewCustomTag(t *testing.T) {
	custom := config.CustomTag{Name: "my custom tag", AppVersion: "11", Distro: "UBI 8"}
	tag, err := NewCustomTag(testHeader, distro.Default(), custom, distro.Private)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Tag{
		Kind:          Custom,
		AppVersion:    "11",
		DistroName:    "UBI 8",
		Image:         "registry.redhat.io/ubi8/test-11:latest",
		StreamName:    "my custom tag",
		Description:   "test description",
		DisplayName:   "Test 11 (UBI 8)",
		Category:      "test",
		AppName:       "test",
		AppPrettyName: "Test",
		RepoAccess:    distro.Private,
	}
	if diff := cmp.Diff(expected, tag); diff != "" {
		t.Errorf("tag differs from expected:\n%s", diff)
	}

	if _, err := NewCustomTag(testHeader, distro.Default(), config.CustomTag{Name: "x", AppVersion: "1", Distro: "Fedora"}, distro.Private); err == nil {
		t.Errorf("expected custom tag with unknown distro to fail")
	}
}

func TestNewLatestTag(t *testing.T) {
	registry := distro.Default()
	tag := NewLatestTag(testHeader, registry, "2-el9", "CentOS Stream 9", distro.Public)
	if tag.AppVersion != "2" {
		t.Errorf("expected app version 2, got %q", tag.AppVersion)
	}
	if tag.StreamName != "latest" {
		t.Errorf("expected stream name latest, got %q", tag.StreamName)
	}
	if tag.Image != "2-el9" {
		t.Errorf("expected image 2-el9, got %q", tag.Image)
	}
	if tag.SourceKind() != SourceImageStreamTag {
		t.Errorf("expected source kind %s, got %s", SourceImageStreamTag, tag.SourceKind())
	}
	if expected := "Test 2 (Latest)"; tag.DisplayName != expected {
		t.Errorf("expected display name %q, got %q", expected, tag.DisplayName)
	}
	if expected := "test description" + registry.LatestDescription; tag.Description != expected {
		t.Errorf("expected description %q, got %q", expected, tag.Description)
	}
	if !strings.HasPrefix(registry.LatestDescription, "\n\nWARNING:") {
		t.Errorf("unexpected latest description %q", registry.LatestDescription)
	}
}

func TestNewLatestTagDottedVersion(t *testing.T) {
	tag := NewLatestTag(testHeader, distro.Default(), "3.12-minimal-el9", "RHEL 9", distro.Private)
	if tag.AppVersion != "3.12" {
		t.Errorf("expected app version 3.12, got %q", tag.AppVersion)
	}
	if tag.Image != "3.12-minimal-el9" {
		t.Errorf("expected image to be the source stream, got %q", tag.Image)
	}
}

func TestTagKindString(t *testing.T) {
	for kind, expected := range map[TagKind]string{Versioned: "versioned", Custom: "custom", Latest: "latest", TagKind(7): "TagKind(7)"} {
		if kind.String() != expected {
			t.Errorf("expected %q, got %q", expected, kind.String())
		}
	}
}
