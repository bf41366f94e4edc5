package core

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider is a named source of pronunciation audio files.
type Provider struct {
	// Key is the lowercase identifier stored in the entries table.
	Key string
	// Name is the label shown to users, e.g. "NHK16".
	Name string
	// BaseURL is the origin every file path of this provider is relative to.
	BaseURL string
}

// Validate checks the provider is usable as a registry member.
func (p Provider) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("provider key is required")
	}
	if p.Key != strings.ToLower(p.Key) {
		return fmt.Errorf("provider key %q must be lowercase", p.Key)
	}
	if strings.ContainsAny(p.Key, "/,") || strings.HasPrefix(p.Key, "-") {
		return fmt.Errorf("provider key %q contains reserved characters", p.Key)
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("provider %s: parsing url: %w", p.Key, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("provider %s: url %q must be absolute", p.Key, p.BaseURL)
	}
	return nil
}

// DisplayName returns the provider label, falling back to the key.
func (p Provider) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Key
}

// FileURL joins the provider origin with a file path relative to it.
func (p Provider) FileURL(file string) string {
	return strings.TrimSuffix(p.BaseURL, "/") + "/" + strings.TrimPrefix(file, "/")
}
