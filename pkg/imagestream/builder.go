package imagestream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// CreateHeader returns an ImageStream without tags.
func CreateHeader(f *File) *ImageStream {
	return &ImageStream{
		Kind:       kindImageStream,
		APIVersion: apiVersion,
		Metadata: ObjectMeta{
			Name:        f.AppName,
			Annotations: map[string]string{displayNameKey: f.AppPrettyName},
		},
		Spec: ImageStreamSpec{Tags: []TagReference{}},
	}
}

// CreateAnnotation returns the annotations describing a tag.
func CreateAnnotation(tag Tag) TagAnnotations {
	return TagAnnotations{
		DisplayName:         tag.DisplayName,
		ProviderDisplayName: providerDisplayName,
		Description:         tag.Description,
		IconClass:           fmt.Sprintf("icon-%s", tag.AppName),
		Tags:                fmt.Sprintf("%s,%s", tag.Category, tag.AppName),
		Version:             tag.AppVersion,
		SampleRepo:          tag.SampleRepo,
	}
}

// AddTag appends a tag to spec.tags.
func AddTag(stream *ImageStream, tag Tag) {
	stream.Spec.Tags = append(stream.Spec.Tags, TagReference{
		Name:            tag.StreamName,
		Annotations:     CreateAnnotation(tag),
		From:            ObjectReference{Kind: tag.SourceKind(), Name: tag.Image},
		ReferencePolicy: TagReferencePolicy{Type: referencePolicyType},
	})
}

// Build returns the ImageStream of an assembled file.
func Build(f *File) *ImageStream {
	stream := CreateHeader(f)
	for _, tag := range f.AllTags() {
		AddTag(stream, tag)
	}
	return stream
}

// GenerateJSON renders the ImageStream of f as JSON indented with two
// spaces and terminated by a newline. Non-ASCII characters are written as
// \uXXXX escapes so the files stay identical to the ones already published.
func GenerateJSON(f *File) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Build(f)); err != nil {
		return nil, fmt.Errorf("unable to serialize %s: %w", f.Filename, err)
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// escapeNonASCII replaces every non-ASCII rune with a lowercase \uXXXX escape,
// using a surrogate pair outside the basic multilingual plane. Encoded JSON
// only carries such runes inside strings.
func escapeNonASCII(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		in = in[size:]
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			out = append(out, fmt.Sprintf(`\u%04x\u%04x`, r1, r2)...)
			continue
		}
		out = append(out, fmt.Sprintf(`\u%04x`, r)...)
	}
	return out
}
