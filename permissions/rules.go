package permissions

import (
	"regexp"
	"sort"
	"strings"
)

const (
	WebRequest         = "webRequest"
	WebRequestBlocking = "webRequestBlocking"
	Tabs               = "tabs"
)

// Namespaces are the root identifiers of the extension API surface.
var Namespaces = []string{"chrome", "chromep", "browser"}

var blockingLiteral = regexp.MustCompile(`['"]blocking['"]`)

// Set is an unordered collection of permission identifiers.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s Set) Add(name string) { s[name] = struct{}{} }

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Union(other Set) {
	for n := range other {
		s.Add(n)
	}
}

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Rule detects usage of one permission within a unit of source text.
// Base rules match any of their Symbols under a namespace root. Derived
// rules see the permissions already found in the same text.
type Rule struct {
	Name     string
	Symbols  []string
	Excluded bool
	Derived  func(found Set, text string) bool

	patterns []*regexp.Regexp
}

func (r Rule) Match(found Set, text string) bool {
	if r.Excluded {
		return false
	}
	if r.Derived != nil {
		return r.Derived(found, text)
	}
	for _, p := range r.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// apiPattern matches <namespace>.<symbol> tolerating whitespace around each dot.
func apiPattern(symbol string) *regexp.Regexp {
	segments := strings.Split(symbol, ".")
	for i, s := range segments {
		segments[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`(?:chromep?|browser)\s*\.\s*` + strings.Join(segments, `\s*\.\s*`))
}

type RuleTable struct {
	rules  []Rule
	byName map[string]int
}

// NewRuleTable orders base rules before derived ones so that derived rules
// always observe the complete set of base matches.
func NewRuleTable(rules ...Rule) *RuleTable {
	t := &RuleTable{byName: make(map[string]int, len(rules))}
	var derived []Rule
	for _, r := range rules {
		if r.Derived != nil {
			derived = append(derived, r)
			continue
		}
		if len(r.Symbols) == 0 {
			r.Symbols = []string{r.Name}
		}
		for _, s := range r.Symbols {
			r.patterns = append(r.patterns, apiPattern(s))
		}
		t.add(r)
	}
	for _, r := range derived {
		t.add(r)
	}
	return t
}

func (t *RuleTable) add(r Rule) {
	t.byName[r.Name] = len(t.rules)
	t.rules = append(t.rules, r)
}

func (t *RuleTable) Names() []string {
	out := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Name)
	}
	return out
}

func (t *RuleTable) Known(name string) bool {
	_, ok := t.byName[name]
	return ok
}

func (t *RuleTable) Detectable(name string) bool {
	i, ok := t.byName[name]
	return ok && !t.rules[i].Excluded
}

// Lookup maps a raw API token (e.g. "storage" or "runtime.connectNative")
// to the detectable permission it belongs to, ignoring case.
func (t *RuleTable) Lookup(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	for _, r := range t.rules {
		if r.Excluded || r.Derived != nil {
			continue
		}
		if strings.EqualFold(r.Name, token) {
			return r.Name, true
		}
		for _, s := range r.Symbols {
			if strings.EqualFold(s, token) {
				return r.Name, true
			}
		}
	}
	return "", false
}

// Detect evaluates every rule against text and returns the matches in
// table order.
func (t *RuleTable) Detect(text string) []string {
	found := NewSet()
	var out []string
	for _, r := range t.rules {
		if r.Match(found, text) {
			found.Add(r.Name)
			out = append(out, r.Name)
		}
	}
	return out
}

func requiresBlocking(found Set, text string) bool {
	return found.Has(WebRequest) && blockingLiteral.MatchString(text)
}

// DefaultRules is the built-in permission table. Tabs is listed so that it
// is a known identifier, but usage of the tabs namespace is too common to
// imply the permission.
var DefaultRules = NewRuleTable(
	Rule{Name: "alarms"},
	Rule{Name: "bookmarks"},
	Rule{Name: "contentSettings"},
	Rule{Name: "contextMenus"},
	Rule{Name: "cookies"},
	Rule{Name: "declarativeContent"},
	Rule{Name: "declarativeNetRequest"},
	Rule{Name: "declarativeWebRequest"},
	Rule{Name: "desktopCapture"},
	Rule{Name: "displaySource"},
	Rule{Name: "dns"},
	Rule{Name: "documentScan"},
	Rule{Name: "downloads"},
	Rule{Name: "experimental"},
	Rule{Name: "fileBrowserHandler"},
	Rule{Name: "fileSystemProvider"},
	Rule{Name: "fontSettings"},
	Rule{Name: "gcm"},
	Rule{Name: "geolocation"},
	Rule{Name: "history"},
	Rule{Name: "identity"},
	Rule{Name: "idle"},
	Rule{Name: "idltest"},
	Rule{Name: "management"},
	Rule{Name: "nativeMessaging", Symbols: []string{"nativeMessaging", "runtime.connectNative", "runtime.sendNativeMessage"}},
	Rule{Name: "notifications"},
	Rule{Name: "pageCapture"},
	Rule{Name: "platformKeys"},
	Rule{Name: "power"},
	Rule{Name: "printerProvider"},
	Rule{Name: "privacy"},
	Rule{Name: "processes"},
	Rule{Name: "proxy"},
	Rule{Name: "sessions"},
	Rule{Name: "signedInDevices"},
	Rule{Name: "storage"},
	Rule{Name: "tabCapture"},
	Rule{Name: Tabs, Excluded: true},
	Rule{Name: "topSites"},
	Rule{Name: "tts"},
	Rule{Name: "ttsEngine"},
	Rule{Name: "unlimitedStorage"},
	Rule{Name: "vpnProvider"},
	Rule{Name: "wallpaper"},
	Rule{Name: "webNavigation"},
	Rule{Name: WebRequest},
	Rule{Name: WebRequestBlocking, Derived: requiresBlocking},
)
