package imagestream

import (
	"strings"

	"k8s.io/klog/v2"

	"github.com/sclorg/ci-scripts/pkg/config"
	"github.com/sclorg/ci-scripts/pkg/distro"
)

// File is one assembled ImageStream document and the tags it contains.
type File struct {
	Filename      string
	AppName       string
	AppPrettyName string
	RepoAccess    distro.Access

	// Tags are ordered by distro, then by version, as declared.
	Tags       []Tag
	CustomTags []Tag
	LatestTag  Tag
}

// RepoAccess derives the registry variant from an output filename: CentOS
// files reference public images, everything else private ones.
func RepoAccess(filename string) distro.Access {
	if strings.Contains(filename, "centos") {
		return distro.Public
	}
	return distro.Private
}

// Assemble expands one imagestream file of the configuration into tags.
func Assemble(spec config.ImagestreamFile, header config.Header, registry *distro.Registry) (*File, error) {
	file := &File{
		Filename:      spec.Filename,
		AppName:       header.Name,
		AppPrettyName: header.PrettyName,
		RepoAccess:    RepoAccess(spec.Filename),
	}
	for _, d := range spec.Distros {
		for _, version := range d.AppVersions {
			tag, err := NewVersionedTag(header, registry, d.Name, file.RepoAccess, version)
			if err != nil {
				return nil, err
			}
			file.Tags = append(file.Tags, tag)
		}
	}

	// The stream name to distro mapping is not 1:1, "16-el8" may be RHEL 8 or
	// CentOS Stream 8, so the distro of latest is taken from the matching tag.
	latestDistro, ok := file.distroOf(spec.Latest)
	if !ok {
		return nil, &LatestResolutionError{Filename: spec.Filename, Latest: spec.Latest}
	}
	file.LatestTag = NewLatestTag(header, registry, spec.Latest, latestDistro, file.RepoAccess)

	for _, custom := range spec.CustomTags {
		tag, err := NewCustomTag(header, registry, custom, file.RepoAccess)
		if err != nil {
			return nil, err
		}
		file.CustomTags = append(file.CustomTags, tag)
	}
	klog.V(4).Infof("Assembled %s: %d tags, %d custom tags, latest -> %s (%s)", file.Filename, len(file.Tags), len(file.CustomTags), spec.Latest, latestDistro)
	return file, nil
}

func (f *File) distroOf(streamName string) (string, bool) {
	for _, tag := range f.Tags {
		if tag.StreamName == streamName {
			return tag.DistroName, true
		}
	}
	return "", false
}

// AllTags returns the tags in document order: versioned, custom, latest.
func (f *File) AllTags() []Tag {
	all := make([]Tag, 0, len(f.Tags)+len(f.CustomTags)+1)
	all = append(all, f.Tags...)
	all = append(all, f.CustomTags...)
	return append(all, f.LatestTag)
}
