package imagestream

import (
	"fmt"
	"strings"

	"github.com/sclorg/ci-scripts/pkg/config"
	"github.com/sclorg/ci-scripts/pkg/distro"
)

// TagKind tells how a tag was derived.
type TagKind int

const (
	// Versioned tags come from the distro x version expansion.
	Versioned TagKind = iota
	// Custom tags are given literally in the configuration.
	Custom
	// Latest is the single tag pointing at another tag of the same ImageStream.
	Latest
)

func (k TagKind) String() string {
	switch k {
	case Versioned:
		return "versioned"
	case Custom:
		return "custom"
	case Latest:
		return "latest"
	default:
		return fmt.Sprintf("TagKind(%d)", int(k))
	}
}

const (
	// SourceDockerImage tags point to a registry image.
	SourceDockerImage = "DockerImage"
	// SourceImageStreamTag tags point to another tag of the same ImageStream.
	SourceImageStreamTag = "ImageStreamTag"

	latestStreamName = "latest"
)

// Tag is one fully resolved ImageStream tag. Tags are built once during
// assembly and are not modified afterwards.
type Tag struct {
	Kind          TagKind
	AppVersion    string
	DistroName    string
	Image         string
	StreamName    string
	Description   string
	DisplayName   string
	Category      string
	SampleRepo    string
	AppName       string
	AppPrettyName string
	RepoAccess    distro.Access
}

// SourceKind is the kind of object the tag is imported from.
func (t Tag) SourceKind() string {
	if t.Kind == Latest {
		return SourceImageStreamTag
	}
	return SourceDockerImage
}

// NewVersionedTag builds the tag of one distro and application version.
func NewVersionedTag(header config.Header, registry *distro.Registry, distroName string, access distro.Access, appVersion string) (Tag, error) {
	abbr, ok := registry.Abbreviation(distroName)
	if !ok {
		return Tag{}, &UnknownDistroError{Distro: distroName}
	}
	image, err := resolveImage(header, registry, distroName, access, appVersion)
	if err != nil {
		return Tag{}, err
	}
	tag := newTag(header, Versioned, distroName, access, appVersion)
	tag.StreamName = StreamName(appVersion, abbr)
	tag.Image = image
	tag.DisplayName = fmt.Sprintf("%s %s (%s)", header.PrettyName, appVersion, distroName)
	return tag, nil
}

// NewCustomTag builds a tag whose name, version and distro are taken
// literally from the configuration.
func NewCustomTag(header config.Header, registry *distro.Registry, custom config.CustomTag, access distro.Access) (Tag, error) {
	image, err := resolveImage(header, registry, custom.Distro, access, custom.AppVersion)
	if err != nil {
		return Tag{}, err
	}
	tag := newTag(header, Custom, custom.Distro, access, custom.AppVersion)
	tag.StreamName = custom.Name
	tag.Image = image
	tag.DisplayName = fmt.Sprintf("%s %s (%s)", header.PrettyName, custom.AppVersion, custom.Distro)
	return tag, nil
}

// NewLatestTag builds the "latest" tag pointing at sourceStream, e.g. "2-el9".
// The application version is the part of the stream name before the first dash.
func NewLatestTag(header config.Header, registry *distro.Registry, sourceStream, distroName string, access distro.Access) Tag {
	appVersion := strings.SplitN(sourceStream, "-", 2)[0]
	tag := newTag(header, Latest, distroName, access, appVersion)
	tag.StreamName = latestStreamName
	tag.Image = sourceStream
	tag.Description += registry.LatestDescription
	tag.DisplayName = fmt.Sprintf("%s %s (Latest)", header.PrettyName, appVersion)
	return tag
}

// StreamName is the name of a versioned tag inside the ImageStream.
func StreamName(appVersion, abbreviation string) string {
	return fmt.Sprintf("%s-%s", appVersion, abbreviation)
}

func newTag(header config.Header, kind TagKind, distroName string, access distro.Access, appVersion string) Tag {
	return Tag{
		Kind:          kind,
		AppVersion:    appVersion,
		DistroName:    distroName,
		Description:   describe(header.Description, appVersion, distroName),
		Category:      header.Category,
		SampleRepo:    header.SampleRepo,
		AppName:       header.Name,
		AppPrettyName: header.PrettyName,
		RepoAccess:    access,
	}
}

func describe(template, appVersion, distroName string) string {
	return strings.NewReplacer(
		distro.AppVersionPlaceholder, appVersion,
		distro.DistroNamePlaceholder, distroName,
	).Replace(template)
}

// resolveImage expands the registry template. Image names never contain the
// dots of the version, so 3.12 becomes python-312.
func resolveImage(header config.Header, registry *distro.Registry, distroName string, access distro.Access, appVersion string) (string, error) {
	template, ok := registry.Template(distroName, access)
	if !ok {
		return "", &UnknownDistroError{Distro: distroName, Access: access}
	}
	return strings.NewReplacer(
		distro.AppVersionPlaceholder, strings.ReplaceAll(appVersion, ".", ""),
		distro.AppNamePlaceholder, header.Name,
	).Replace(template), nil
}
