package config

import (
	"context"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope is the scope every outbound Vertex call runs under.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenSource resolves a cached, self-refreshing bearer token source from
// GOOGLE_APPLICATION_CREDENTIALS_JSON or application default credentials.
// A missing credential source is a *ConfigError.
func TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if raw := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); strings.HasPrefix(raw, "{") {
		creds, err = google.CredentialsFromJSON(ctx, []byte(raw), CloudPlatformScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, CloudPlatformScope)
	}
	if err != nil {
		return nil, &ConfigError{Field: "credentials", Reason: err.Error()}
	}
	return oauth2.ReuseTokenSource(nil, creds.TokenSource), nil
}

// ClientOptionsFromEnv returns Google client options for explicitly
// configured credentials, or nil to fall back to the library default.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
