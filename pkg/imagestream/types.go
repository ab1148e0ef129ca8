package imagestream

const (
	apiVersion          = "image.openshift.io/v1"
	kindImageStream     = "ImageStream"
	displayNameKey      = "openshift.io/display-name"
	providerDisplayName = "Red Hat, Inc."
	referencePolicyType = "Local"
)

// ImageStream is the generated OpenShift ImageStream document. Field order
// matches the order in which keys are written.
type ImageStream struct {
	Kind       string          `json:"kind"`
	APIVersion string          `json:"apiVersion"`
	Metadata   ObjectMeta      `json:"metadata"`
	Spec       ImageStreamSpec `json:"spec"`
}

type ObjectMeta struct {
	Name        string            `json:"name"`
	Annotations map[string]string `json:"annotations"`
}

type ImageStreamSpec struct {
	Tags []TagReference `json:"tags"`
}

// TagReference is one entry of spec.tags.
type TagReference struct {
	Name            string             `json:"name"`
	Annotations     TagAnnotations     `json:"annotations"`
	From            ObjectReference    `json:"from"`
	ReferencePolicy TagReferencePolicy `json:"referencePolicy"`
}

// TagAnnotations are the catalog annotations attached to every tag.
// SampleRepo is only written when set.
type TagAnnotations struct {
	DisplayName         string `json:"openshift.io/display-name"`
	ProviderDisplayName string `json:"openshift.io/provider-display-name"`
	Description         string `json:"description"`
	IconClass           string `json:"iconClass"`
	Tags                string `json:"tags"`
	Version             string `json:"version"`
	SampleRepo          string `json:"sampleRepo,omitempty"`
}

type ObjectReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type TagReferencePolicy struct {
	Type string `json:"type"`
}
