package resolve

import (
	"regexp"

	"github.com/rubiojr/yomiaudio/pkg/core"
)

// MaxPatternLength bounds caller supplied display filters.
const MaxPatternLength = 256

// CompileDisplayFilter compiles a case-insensitive exclusion pattern. An
// empty pattern returns a nil filter.
func CompileDisplayFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	if len(pattern) > MaxPatternLength {
		return nil, core.NewInputError("excludeDisplayTextRegex parameter too long")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, core.WrapInputError("Invalid excludeDisplayTextRegex", err)
	}
	return re, nil
}

// ExcludeByName drops sources whose display name matches re.
func ExcludeByName(sources []core.AudioSource, re *regexp.Regexp) []core.AudioSource {
	if re == nil {
		return sources
	}
	out := sources[:0:0]
	for _, s := range sources {
		if !re.MatchString(s.Name) {
			out = append(out, s)
		}
	}
	return out
}
