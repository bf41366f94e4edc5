// Package resolve turns a term lookup into the list of audio sources returned
// to clients.
//
// # Pipeline
//
// A request flows through these steps, in order:
//
//  1. Term validation and NFC normalization
//  2. Source selection: the "sources" filter resolved against the registry
//  3. Entry lookup: one parameterized query against the entries index
//  4. Family deduplication: repeated recordings across Forvo variants collapse
//  5. URL resolution: proxy paths through this service, or direct origin URLs
//  6. Display filtering: a caller pattern drops entries by display name
//
// An empty source selection or a term with no entries is a successful, empty
// result. Only store failures and invalid input are errors.
//
// # Usage
//
//	svc := resolve.NewService(registry, store, resolve.Options{DedupFamily: true, FamilyPrefix: "forvo"})
//	sources, err := svc.Resolve(ctx, resolve.Request{Term: "猫", Sources: "-forvo", Host: "audio.example.com"})
package resolve
