package imagecheck

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/openshift/library-go/pkg/image/registryclient"
	"k8s.io/klog/v2"
)

// dockerConfig is the part of a docker config.json (or a
// .dockerconfigjson pull secret) holding registry logins.
type dockerConfig struct {
	Auths map[string]dockerAuth `json:"auths"`
}

type dockerAuth struct {
	Auth     string `json:"auth"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadCredentials reads the registry logins of a docker config file.
func LoadCredentials(path string) (*registryclient.BasicCredentials, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read registry config: %w", err)
	}
	var config dockerConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("unable to parse registry config %s: %w", path, err)
	}

	credentials := registryclient.NewBasicCredentials()
	for registry, auth := range config.Auths {
		username, password, err := auth.login()
		if err != nil {
			return nil, fmt.Errorf("invalid login for %s in %s: %w", registry, path, err)
		}
		u, err := registryURL(registry)
		if err != nil {
			return nil, fmt.Errorf("invalid registry %q in %s: %w", registry, path, err)
		}
		credentials.Add(u, username, password)
		klog.V(2).Infof("Loaded credentials for %s", u.Host)
	}
	return credentials, nil
}

func (a dockerAuth) login() (string, string, error) {
	if len(a.Auth) == 0 {
		return a.Username, a.Password, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(a.Auth)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("auth must be base64 encoded username:password")
	}
	return parts[0], parts[1], nil
}

// registryURL accepts both bare hosts (registry.redhat.io) and URLs
// (https://index.docker.io/v1/). Logins apply to the whole host.
func registryURL(registry string) (*url.URL, error) {
	if !strings.Contains(registry, "://") {
		registry = "https://" + registry
	}
	u, err := url.Parse(registry)
	if err != nil {
		return nil, err
	}
	if len(u.Host) == 0 {
		return nil, fmt.Errorf("no host")
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}
