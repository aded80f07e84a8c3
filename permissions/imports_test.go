package permissions

import (
	"context"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestParseImports(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		source   string
		expected []string
	}{
		{
			name: "es modules",
			path: "a.js",
			source: `import x from "./x";
import { y } from './y.js';
import * as z from "../z";
import "./side-effect";
export { w } from "./w";
export * from "./all";
`,
			expected: []string{"./x", "./y.js", "../z", "./side-effect", "./w", "./all"},
		},
		{
			name: "commonjs and dynamic import",
			path: "b.js",
			source: `const a = require("./a");
const { b } = require('lodash');
function later() { return import("./lazy"); }
require(name);
`,
			expected: []string{"./a", "lodash", "./lazy"},
		},
		{
			name: "typescript",
			path: "c.ts",
			source: `import type { T } from "./types";
import fs = require("./legacy");
const n: number = 1;
export default n;
`,
			expected: []string{"./types", "./legacy"},
		},
		{
			name: "tsx",
			path: "d.tsx",
			source: `import React from "react";
import { Button } from "./Button";
export const App = () => <Button label="hi" />;
`,
			expected: []string{"react", "./Button"},
		},
		{
			name:     "duplicates collapse",
			path:     "e.js",
			source:   "import './x';\nrequire('./x');\n",
			expected: []string{"./x"},
		},
		{
			name:     "no imports",
			path:     "f.js",
			source:   "browser.alarms.create('a', {});\n",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseImports(context.Background(), tc.path, []byte(tc.source))
			if err != nil {
				t.Fatalf("ParseImports() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ParseImports() = %v, want %v", got, tc.expected)
			}
		})
	}
}

const graphProject = `
-- src/background.js --
import { sync } from "./lib/sync";
import helper from "./helper";
import lib from "./pkg";
import "some-package";
import "./missing";
import "./background.test.js";
-- src/lib/sync.ts --
import { store } from "../store.js";
export const sync = () => store();
-- src/store.ts --
export const store = () => 1;
-- src/helper/index.js --
module.exports = require("./impl");
-- src/helper/impl.jsx --
export default 1;
-- src/pkg/package.json --
{"main": "node.js", "browser": "web.js"}
-- src/pkg/node.js --
export default "node";
-- src/pkg/web.js --
export default "web";
-- src/background.test.js --
browser.history.search({});
-- src/unrelated.js --
browser.bookmarks.getTree();
-- node_modules/some-package/index.js --
browser.cookies.getAll({});
`

func closurePaths(t *testing.T, root string, opts GraphOptions, entrypoints ...string) []string {
	t.Helper()
	var roots []string
	for _, ep := range entrypoints {
		roots = append(roots, filepath.Join(root, ep))
	}
	files, err := NewImportGraph(testLogger(t), opts).Closure(context.Background(), roots)
	if err != nil {
		t.Fatalf("Closure() error = %v", err)
	}
	var out []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatalf("Rel() error = %v", err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestImportGraphClosure(t *testing.T) {
	root := writeProject(t, graphProject)

	testCases := []struct {
		name     string
		opts     GraphOptions
		expected []string
	}{
		{
			name: "node resolution",
			opts: GraphOptions{},
			expected: []string{
				"src/background.js",
				"src/helper/impl.jsx",
				"src/helper/index.js",
				"src/lib/sync.ts",
				"src/pkg/node.js",
				"src/store.ts",
			},
		},
		{
			name: "browser resolution",
			opts: GraphOptions{Browser: true, Concurrency: 1},
			expected: []string{
				"src/background.js",
				"src/helper/impl.jsx",
				"src/helper/index.js",
				"src/lib/sync.ts",
				"src/pkg/web.js",
				"src/store.ts",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := closurePaths(t, root, tc.opts, "src/background.js")
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Closure() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestImportGraphUnreadableRoot(t *testing.T) {
	root := t.TempDir()
	files, err := NewImportGraph(testLogger(t), GraphOptions{}).Closure(context.Background(), []string{filepath.Join(root, "nope.js")})
	if err != nil {
		t.Fatalf("Closure() error = %v", err)
	}
	if len(files) != 1 || len(files[0].Content) != 0 {
		t.Errorf("expected one empty file, got %+v", files)
	}
}

func TestImportGraphCycles(t *testing.T) {
	root := writeProject(t, `
-- a.js --
import "./b";
-- b.js --
import "./a";
`)
	got := closurePaths(t, root, GraphOptions{}, "a.js")
	if !reflect.DeepEqual(got, []string{"a.js", "b.js"}) {
		t.Errorf("Closure() = %v, want [a.js b.js]", got)
	}
}

func TestSourceListerList(t *testing.T) {
	root := writeProject(t, graphProject)
	files, err := NewSourceLister(testLogger(t), root).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f)
		got = append(got, filepath.ToSlash(rel))
	}
	expected := []string{
		"src/background.js",
		"src/helper/impl.jsx",
		"src/helper/index.js",
		"src/lib/sync.ts",
		"src/pkg/node.js",
		"src/pkg/web.js",
		"src/store.ts",
		"src/unrelated.js",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("List() = %v, want %v", got, expected)
	}
}

func TestSourceListerMissingRoot(t *testing.T) {
	_, err := NewSourceLister(testLogger(t), filepath.Join(t.TempDir(), "missing")).List()
	if err == nil {
		t.Error("List() on a missing root should fail")
	}
}
