package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProjectInfoWalksUp(t *testing.T) {
	fs := memProject(t, demoPackage+"-- src/content/a.js --\n")
	mg := newTestGenerator(t, fs)

	info, err := mg.ReadProjectInfo("/project/src/content")
	require.NoError(t, err)
	assert.Equal(t, ProjectInfo{Name: "demo-ext", Version: "1.2.3", Description: "Demo extension", Dir: "/project"}, info)
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.2.3":         "1.2.3",
		"v2.0.1":        "2.0.1",
		"1.4":           "1.4.0",
		"3.1.0-beta.2":  "3.1.0",
		"1.0.0+build.7": "1.0.0",
		"":              "",
		"latest":        "latest",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeVersion(in), in)
	}
}
