package permissions

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDetect(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "browser namespace",
			text:     `browser.alarms.create("tick", {periodInMinutes: 1})`,
			expected: []string{"alarms"},
		},
		{
			name:     "chrome namespace",
			text:     `chrome.bookmarks.getTree(cb)`,
			expected: []string{"bookmarks"},
		},
		{
			name:     "promisified chrome namespace",
			text:     `await chromep.storage.local.get("k")`,
			expected: []string{"storage"},
		},
		{
			name:     "whitespace and newlines around the dot",
			text:     "browser\n\t  .\n  cookies\n  .getAll({})",
			expected: []string{"cookies"},
		},
		{
			name:     "nested runtime path",
			text:     "const port = chrome.runtime\n  .connectNative('com.example.host')",
			expected: []string{"nativeMessaging"},
		},
		{
			name:     "prefix permissions both match",
			text:     `browser.ttsEngine.onSpeak.addListener(fn)`,
			expected: []string{"tts", "ttsEngine"},
		},
		{
			name:     "tabs is never detected",
			text:     `"browser.tabs"; chrome.tabs.query({active: true})`,
			expected: nil,
		},
		{
			name:     "plain web request",
			text:     `browser.webRequest.onCompleted.addListener(fn, {urls: ["<all_urls>"]})`,
			expected: []string{"webRequest"},
		},
		{
			name:     "blocking web request in single quotes",
			text:     `browser.webRequest.onBeforeRequest.addListener(fn, {urls: ["<all_urls>"]}, ['blocking'])`,
			expected: []string{"webRequest", "webRequestBlocking"},
		},
		{
			name:     "blocking web request in double quotes",
			text:     `chrome.webRequest.onBeforeSendHeaders.addListener(fn, f, ["blocking", "requestHeaders"])`,
			expected: []string{"webRequest", "webRequestBlocking"},
		},
		{
			name:     "blocking literal without web request",
			text:     `const mode = 'blocking'; browser.alarms.clear()`,
			expected: []string{"alarms"},
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "unrelated receiver",
			text:     `window.storage.get(); myBrowser_history`,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DefaultRules.Detect(tc.text)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Detect() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestDerivedRulesRunLast(t *testing.T) {
	names := DefaultRules.Names()
	if names[len(names)-1] != WebRequestBlocking {
		t.Errorf("last rule = %s, want %s", names[len(names)-1], WebRequestBlocking)
	}

	table := NewRuleTable(
		Rule{Name: "derived", Derived: func(found Set, _ string) bool { return found.Has("base") }},
		Rule{Name: "base"},
	)
	got := table.Detect("browser.base()")
	if !reflect.DeepEqual(got, []string{"base", "derived"}) {
		t.Errorf("Detect() = %v, want [base derived]", got)
	}
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		token    string
		expected string
		ok       bool
	}{
		{"storage", "storage", true},
		{"STORAGE", "storage", true},
		{"webrequest", "webRequest", true},
		{"runtime.connectNative", "nativeMessaging", true},
		{"runtime.sendNativeMessage", "nativeMessaging", true},
		{"tabs", "", false},
		{"webRequestBlocking", "", false},
		{"runtime", "", false},
		{"i18n", "", false},
		{"", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			got, ok := DefaultRules.Lookup(tc.token)
			if ok != tc.ok || got != tc.expected {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tc.token, got, ok, tc.expected, tc.ok)
			}
		})
	}
}

func TestKnownAndDetectable(t *testing.T) {
	if !DefaultRules.Known(Tabs) {
		t.Error("tabs should be a known identifier")
	}
	if DefaultRules.Detectable(Tabs) {
		t.Error("tabs should not be detectable")
	}
	if DefaultRules.Known("activeTab") {
		t.Error("activeTab is not part of the detection table")
	}
	if !DefaultRules.Detectable(WebRequestBlocking) {
		t.Error("webRequestBlocking should be detectable")
	}
}

func TestPermissionPatternProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	var base []string
	for _, n := range DefaultRules.Names() {
		if DefaultRules.Detectable(n) && n != WebRequestBlocking && n != "nativeMessaging" {
			base = append(base, n)
		}
	}
	names := make([]interface{}, len(base))
	for i, n := range base {
		names[i] = n
	}
	properties.Property("namespace.permission matches across whitespace", prop.ForAll(
		func(ns, perm, ws string, before, after int) bool {
			text := "x = " + ns + strings.Repeat(ws, before) + "." + strings.Repeat(ws, after) + perm + ".call()"
			for _, got := range DefaultRules.Detect(text) {
				if got == perm {
					return true
				}
			}
			return false
		},
		gen.OneConstOf("chrome", "chromep", "browser"),
		gen.OneConstOf(names...),
		gen.OneConstOf(" ", "\t", "\n", "\r\n"),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.Property("text without a dot never matches", prop.ForAll(
		func(s string) bool {
			return len(DefaultRules.Detect(s)) == 0
		},
		gen.AlphaString(),
	))

	properties.Property("a foreign namespace never matches", prop.ForAll(
		func(perm string) bool {
			return len(DefaultRules.Detect("navigator."+perm+"()")) == 0
		},
		gen.OneConstOf(names...),
	))

	properties.TestingRun(t)
}
