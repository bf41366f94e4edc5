package core

import "testing"

func testRegistry(t *testing.T, keys ...string) *Registry {
	t.Helper()
	providers := make([]Provider, len(keys))
	for i, key := range keys {
		providers[i] = Provider{Key: key, Name: key, BaseURL: "https://files.example.com/" + key}
	}
	r, err := NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func strPtr(s string) *string { return &s }
