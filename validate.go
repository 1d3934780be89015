package php2json

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IssueLevel represents severity of validation issue.
type IssueLevel string

const (
	// IssueError indicates a value that cannot be rendered faithfully.
	IssueError IssueLevel = "error"
	// IssueWarning indicates a value that renders, but likely not as intended.
	IssueWarning IssueLevel = "warning"
)

// Issue codes.
const (
	CodeUnresolvedRef  = "unresolved_ref"   // r:N; outside object members
	CodeInvalidUTF8    = "invalid_utf8"     // string payload is not UTF-8
	CodeNonFiniteFloat = "non_finite_float" // NaN or Inf, not representable in JSON
	CodeCycle          = "cycle"            // reference back to an enclosing container
	CodeShared         = "shared"           // second reference to a container written earlier
)

// Issue represents a validation issue.
type Issue struct {
	Level   IssueLevel `json:"level" yaml:"level"`                   // Severity level
	Code    string     `json:"code,omitempty" yaml:"code,omitempty"` // Machine-readable code
	Message string     `json:"message" yaml:"message"`               // Issue message
	Path    string     `json:"path,omitempty" yaml:"path,omitempty"` // JSON Pointer to the affected value
}

// ValidateOptions controls validation rules.
type ValidateOptions struct {
	// ExcludePaths skips checks below matching JSON Pointers.
	// Supports exact match and prefix wildcard with '*' suffix (e.g. "/cache/*").
	ExcludePaths []string
	// DisableRefCheck disables reporting of unresolved r:N; markers.
	DisableRefCheck bool
	// DisableUTF8Check disables reporting of strings that are not valid UTF-8.
	// Such strings usually mean byte and character sizes disagree (see DecodeOptions.CharacterLengths).
	DisableUTF8Check bool
	// DisableFloatCheck disables reporting of NaN and Inf floats.
	DisableFloatCheck bool
	// DisableCycleCheck disables reporting of members elided by writers as
	// cycles or repeated references.
	DisableCycleCheck bool
}

// normalize normalizes the ValidateOptions.
func (o *ValidateOptions) normalize() ValidateOptions {
	if o == nil {
		return ValidateOptions{}
	}

	return *o
}

// Validate walks a decoded value tree and returns issues.
func Validate(v any, opt *ValidateOptions) []Issue {
	c := &checker{opt: opt.normalize(), guard: cycleGuard{}}
	c.walk(v, "")

	return c.out
}

// checker accumulates issues during a tree walk.
type checker struct {
	guard cycleGuard      // Containers met so far
	out   []Issue         // Collected issues
	opt   ValidateOptions // Validation rules
}

// walk checks one value at path.
func (c *checker) walk(v any, path string) {
	if shouldExcludePath(path, c.opt.ExcludePaths) {
		return
	}

	switch x := v.(type) {
	case string:
		if !c.opt.DisableUTF8Check && !utf8.ValidString(x) {
			c.add(IssueWarning, CodeInvalidUTF8, "string is not valid UTF-8", path)
		}

	case float64:
		if !c.opt.DisableFloatCheck && (math.IsNaN(x) || math.IsInf(x, 0)) {
			c.add(IssueError, CodeNonFiniteFloat, "float is not finite", path)
		}

	case RecursionRef:
		if !c.opt.DisableRefCheck {
			c.add(IssueWarning, CodeUnresolvedRef, "recursion marker r:"+strconv.Itoa(int(x))+" left unresolved", path)
		}

	case []any:
		for i, e := range x {
			c.walkMember(e, path+"/"+strconv.Itoa(i))
		}

	case *Map:
		c.walkEntries(x, x.Entries(), path)

	case *Object:
		c.walkEntries(x, x.Fields.Entries(), path)
	}
}

// walkEntries checks the entries of container cont while it is on the path.
func (c *checker) walkEntries(cont any, entries []Entry, path string) {
	c.guard.enter(cont)
	defer c.guard.leave(cont)

	for _, e := range entries {
		c.walkMember(e.Value, path+"/"+escapePointer(e.Key))
	}
}

// walkMember checks a container member. Members that writers elide are
// reported instead of descended into.
func (c *checker) walkMember(v any, path string) {
	if c.guard.seen(v) {
		if c.opt.DisableCycleCheck || shouldExcludePath(path, c.opt.ExcludePaths) {
			return
		}
		if c.guard.onPath(v) {
			c.add(IssueWarning, CodeCycle, "reference to an enclosing container is elided on output", path)
		} else {
			c.add(IssueWarning, CodeShared, "repeated reference to a container is elided on output", path)
		}
		return
	}

	c.walk(v, path)
}

// add records an issue.
func (c *checker) add(level IssueLevel, code, msg, path string) {
	c.out = append(c.out, Issue{Level: level, Code: code, Message: msg, Path: path})
}

// HasErrors reports whether any issue has error level.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Level == IssueError {
			return true
		}
	}

	return false
}

// escapePointer escapes a key for use in a JSON Pointer.
func escapePointer(key string) string {
	if !strings.ContainsAny(key, "~/") {
		return key
	}

	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// shouldExcludePath checks if the path should be excluded.
func shouldExcludePath(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	for _, p := range patterns {
		if p == "" {
			continue
		}

		// Check if the path matches a wildcard pattern
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}

			continue
		}

		// Check if the path matches an exact pattern
		if path == p {
			return true
		}
	}

	return false
}
