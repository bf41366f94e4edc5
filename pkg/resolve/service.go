package resolve

import (
	"context"
	"unicode/utf16"

	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/log"
	"github.com/rubiojr/yomiaudio/pkg/storage"
)

// MaxTermLength is the longest term a request may carry, in UTF-16 code
// units. Characters outside the BMP count twice.
const MaxTermLength = 100

var logger = log.ForService("resolve")

// EntryLookup is the part of the entries index the resolver needs.
type EntryLookup interface {
	Lookup(ctx context.Context, q storage.LookupQuery) ([]core.AudioEntry, error)
}

// Options holds the resolver policy flags.
type Options struct {
	// ProxyAudio routes every URL through this service's file endpoint.
	ProxyAudio bool
	// DedupFamily collapses duplicate recordings among FamilyPrefix providers.
	DedupFamily bool
	// FamilyPrefix selects the providers deduplicated against each other.
	FamilyPrefix string
}

// Request is one audio source lookup.
type Request struct {
	// Term is the expression to look up. Required.
	Term string
	// Reading optionally narrows results; entries without a reading always match.
	Reading string
	// Sources is the raw comma separated selection filter ("nhk16,-forvo").
	Sources string
	// ExcludeDisplayRegex drops results whose display name matches.
	ExcludeDisplayRegex string
	// Host is the inbound request host, used for proxied URLs.
	Host string
}

// Service runs the resolution pipeline against an injected store.
type Service struct {
	registry *core.Registry
	store    EntryLookup
	opts     Options
	family   map[string]bool
}

// NewService creates a resolver. The registry and options are fixed for the
// service's lifetime.
func NewService(registry *core.Registry, store EntryLookup, opts Options) *Service {
	family := map[string]bool{}
	if opts.DedupFamily {
		family = FamilyMembers(registry, opts.FamilyPrefix)
	}
	return &Service{
		registry: registry,
		store:    store,
		opts:     opts,
		family:   family,
	}
}

// Registry returns the provider registry the service resolves against.
func (s *Service) Registry() *core.Registry {
	return s.registry
}

// ValidateTerm checks a raw term parameter.
func ValidateTerm(term string) error {
	if term == "" {
		return core.NewInputError("Missing term parameter")
	}
	if termLength(term) > MaxTermLength {
		return core.NewInputError("Term parameter too long")
	}
	return nil
}

func termLength(term string) int {
	n := 0
	for _, r := range term {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Resolve returns the audio sources for req in ranked order. The returned
// slice is never nil.
func (s *Service) Resolve(ctx context.Context, req Request) ([]core.AudioSource, error) {
	if err := ValidateTerm(req.Term); err != nil {
		return nil, err
	}
	filter, err := CompileDisplayFilter(req.ExcludeDisplayRegex)
	if err != nil {
		return nil, err
	}

	keys := core.ResolveSources(req.Sources, s.registry)
	if len(keys) == 0 {
		logger.Debugf("empty source selection for %q", req.Sources)
		return []core.AudioSource{}, nil
	}

	entries, err := s.store.Lookup(ctx, storage.LookupQuery{
		Term:    req.Term,
		Reading: req.Reading,
		Sources: keys,
		Ranking: storage.RankOrder(keys, s.registry.Keys()),
	})
	if err != nil {
		return nil, err
	}

	entries = DedupFamily(entries, s.family)

	sources := make([]core.AudioSource, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, core.AudioSource{
			Name: e.DisplayName(s.registry),
			URL:  ResolveURL(e, s.registry, s.opts.ProxyAudio, req.Host),
		})
	}

	return ExcludeByName(sources, filter), nil
}
