package imagecheck

import (
	"encoding/base64"
	"io/ioutil"
	"net/url"
	"path/filepath"
	"testing"
)

func writeRegistryConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := ioutil.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCredentials(t *testing.T) {
	auth := base64.StdEncoding.EncodeToString([]byte("robot:secret:with:colons"))
	path := writeRegistryConfig(t, `{
  "auths": {
    "registry.redhat.io": {"auth": "`+auth+`"},
    "https://quay.io/v1/": {"username": "quayuser", "password": "quaypass"}
  }
}`)
	credentials, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testCases := []struct {
		url      string
		username string
		password string
	}{
		{url: "https://registry.redhat.io/v2/", username: "robot", password: "secret:with:colons"},
		{url: "https://quay.io/v2/sclorg/nodejs-22-c9s/manifests/latest", username: "quayuser", password: "quaypass"},
		{url: "https://registry.access.redhat.com/v2/"},
	}
	for _, tc := range testCases {
		u, err := url.Parse(tc.url)
		if err != nil {
			t.Fatal(err)
		}
		username, password := credentials.Basic(u)
		if username != tc.username || password != tc.password {
			t.Errorf("%s: expected %q/%q, got %q/%q", tc.url, tc.username, tc.password, username, password)
		}
	}
}

func TestLoadCredentialsErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: `{"auths": `},
		{name: "auth is not base64", content: `{"auths": {"registry.redhat.io": {"auth": "%%%"}}}`},
		{name: "auth without password", content: `{"auths": {"registry.redhat.io": {"auth": "` + base64.StdEncoding.EncodeToString([]byte("robot")) + `"}}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadCredentials(writeRegistryConfig(t, tc.content)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
	if _, err := LoadCredentials(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
