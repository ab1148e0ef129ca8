package imagestream

import (
	"fmt"

	"github.com/sclorg/ci-scripts/pkg/distro"
)

// UnknownDistroError is returned when the configuration refers to a distro
// the registry does not know, or to an access level it has no image for.
type UnknownDistroError struct {
	Distro string
	Access distro.Access
}

func (e *UnknownDistroError) Error() string {
	if len(e.Access) == 0 {
		return fmt.Sprintf("distro %q is not recognized", e.Distro)
	}
	return fmt.Sprintf("distro %q has no %s image", e.Distro, e.Access)
}

// LatestResolutionError is returned when the latest stream name of a file
// does not match any of its versioned tags.
type LatestResolutionError struct {
	Filename string
	Latest   string
}

func (e *LatestResolutionError) Error() string {
	return fmt.Sprintf("%s: the stream name %q of the latest tag was not found in the rest of tags", e.Filename, e.Latest)
}
