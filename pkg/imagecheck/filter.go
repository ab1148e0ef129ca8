package imagecheck

import (
	"fmt"
	"regexp"

	"github.com/docker/distribution/manifest/manifestlist"
)

// FilterOptions selects the platforms every checked image must provide.
type FilterOptions struct {
	FilterByPlatform string
	PlatformFilter   *regexp.Regexp
}

// Validate checks whether the flags are ready for use.
func (o *FilterOptions) Validate() error {
	pattern := o.FilterByPlatform
	if len(pattern) > 0 {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("--require-platform was not a valid regular expression: %v", err)
		}
		o.PlatformFilter = re
	}
	return nil
}

// IsWildcardFilter returns true if the filter regex is set to a wildcard
func (o *FilterOptions) IsWildcardFilter() bool {
	return o.FilterByPlatform == ".*"
}

// Matches returns true if one of the platforms matches the filter, or if
// there is no filter at all.
func (o *FilterOptions) Matches(platforms []string) bool {
	if o == nil || o.PlatformFilter == nil || o.IsWildcardFilter() {
		return true
	}
	for _, p := range platforms {
		if o.PlatformFilter.MatchString(p) {
			return true
		}
	}
	return false
}

func PlatformSpecString(platform manifestlist.PlatformSpec) string {
	if len(platform.Variant) > 0 {
		return fmt.Sprintf("%s/%s/%s", platform.OS, platform.Architecture, platform.Variant)
	}
	return fmt.Sprintf("%s/%s", platform.OS, platform.Architecture)
}
