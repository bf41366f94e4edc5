package core

import "strings"

// AudioEntry is one row of the entries index.
type AudioEntry struct {
	Expression string
	Reading    *string
	Source     string
	Speaker    *string
	Display    *string
	File       string
}

// ReadingOrEmpty returns the reading, or "" when it is unset.
func (e AudioEntry) ReadingOrEmpty() string {
	return deref(e.Reading)
}

// SpeakerOrEmpty returns the speaker, or "" when it is unset.
func (e AudioEntry) SpeakerOrEmpty() string {
	return deref(e.Speaker)
}

// DisplayOrEmpty returns the free-text label, or "" when it is unset.
func (e AudioEntry) DisplayOrEmpty() string {
	return deref(e.Display)
}

// Path is the entry's location on this service: "/{source}/{file}".
func (e AudioEntry) Path() string {
	return "/" + e.Source + "/" + e.File
}

// DisplayName renders the label shown for an entry: the provider name
// followed by " (speaker)" or, without a speaker, " display".
func (e AudioEntry) DisplayName(r *Registry) string {
	name := e.Source
	if p, ok := r.Get(strings.ToLower(e.Source)); ok {
		name = p.DisplayName()
	}
	if speaker := e.SpeakerOrEmpty(); speaker != "" {
		return name + " (" + speaker + ")"
	}
	if display := e.DisplayOrEmpty(); display != "" {
		return name + " " + display
	}
	return name
}

// AudioSource is a resolved, user-facing reference to an audio file.
type AudioSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
