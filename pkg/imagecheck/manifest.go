package imagecheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docker/distribution"
	"github.com/docker/distribution/manifest/manifestlist"
	"github.com/docker/distribution/manifest/schema2"
	digest "github.com/opencontainers/go-digest"
	"k8s.io/klog/v2"
)

var manifestMediaTypes = []string{manifestlist.MediaTypeManifestList, schema2.MediaTypeManifest}

type blobGetter interface {
	Get(ctx context.Context, dgst digest.Digest) ([]byte, error)
}

// imageConfig is the part of the image configuration blob naming its platform.
type imageConfig struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	Variant      string `json:"variant,omitempty"`
}

// manifestPlatforms lists the platforms a manifest provides. Manifest lists
// name them directly; a single image names its platform in the config blob.
func manifestPlatforms(ctx context.Context, m distribution.Manifest, blobs blobGetter) ([]string, error) {
	switch t := m.(type) {
	case *manifestlist.DeserializedManifestList:
		var platforms []string
		for _, manifest := range t.Manifests {
			klog.V(5).Infof("Found image %s for %#v", manifest.Digest, manifest.Platform)
			platforms = append(platforms, PlatformSpecString(manifest.Platform))
		}
		return platforms, nil
	case *schema2.DeserializedManifest:
		raw, err := blobs.Get(ctx, t.Config.Digest)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve image config %s: %v", t.Config.Digest, err)
		}
		var config imageConfig
		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, fmt.Errorf("unable to parse image config %s: %v", t.Config.Digest, err)
		}
		return []string{PlatformSpecString(manifestlist.PlatformSpec{
			OS:           config.OS,
			Architecture: config.Architecture,
			Variant:      config.Variant,
		})}, nil
	default:
		return nil, fmt.Errorf("unsupported manifest type %T", m)
	}
}
