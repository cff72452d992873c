package condition

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/loot/condition-interpreter/pkg/cerrors"
)

// regexCache holds every regex this process has compiled, keyed by its
// original (unanchored) text, so that two condition strings sharing a
// filename pattern -- common in real LOOT metadata, where the same regex
// guards several functions in one file -- only pay compilation cost once.
// Compilation itself happens at parse time (§3: "compilation is lazy but
// must succeed at parse time"); this cache is what makes repeated parses of
// the same masterlist cheap, matching §9's "cyclic regex caching" note.
var regexCache sync.Map // string -> *regexp.Regexp

// maxRegexLength bounds how large a single regex literal this package will
// compile. Go's regexp package is RE2-based and immune to catastrophic
// backtracking, but an attacker or a corrupt masterlist could still hand us
// an enormous pattern that's expensive to compile and match; this is a
// cheap sanity ceiling, not a security boundary against backtracking.
const maxRegexLength = 4096

// compileAnchored compiles raw as an anchored, case-insensitive regex
// ((?i)^raw$, per §3: "all regex matches are anchored"), consulting and
// populating regexCache. A
// compile failure is returned as *cerrors.InvalidRegex, which the parser
// turns into a parse error per §3 ("invalid regex ⇒ parse error").
func compileAnchored(raw string) (*regexp.Regexp, error) {
	if len(raw) > maxRegexLength {
		return nil, &cerrors.InvalidRegex{Pattern: raw, Err: fmt.Errorf("pattern exceeds %d bytes", maxRegexLength)}
	}
	if cached, ok := regexCache.Load(raw); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile("(?i)^" + raw + "$")
	if err != nil {
		return nil, &cerrors.InvalidRegex{Pattern: raw, Err: err}
	}

	actual, _ := regexCache.LoadOrStore(raw, re)
	return actual.(*regexp.Regexp), nil
}

// MustMatcher returns the compiled, anchored matcher for a RegexArg built by
// the parser. Parsing guarantees raw already compiled successfully once, so
// this never fails in practice; it recompiles (cache permitting) rather than
// storing the *regexp.Regexp directly on RegexArg, keeping RegexArg a plain
// comparable value usable as a map/fingerprint key.
func (r RegexArg) MustMatcher() *regexp.Regexp {
	re, err := compileAnchored(r.Raw)
	if err != nil {
		// Unreachable for a RegexArg produced by the parser: Parse already
		// compiled the same text successfully, and compilation is pure.
		panic(err)
	}
	return re
}
