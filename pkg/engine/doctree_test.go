package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/docfix/pkg/errors"
)

func TestDocumentXMLRoundTrip(t *testing.T) {
	doc := &Document{
		Name:    "guide/intro",
		Source:  "guide/intro.md",
		Title:   "Intro & more",
		Meta:    map[string]string{"title": "Intro & more", "order": "2"},
		Content: "# Intro\n\n<b>tags</b> stay text\n",
		ModTime: time.Date(2024, 5, 1, 10, 30, 0, 123, time.UTC),
	}

	data, err := documentXML(doc).WriteToBytes()
	require.NoError(t, err)

	parsed, err := parseDocumentXML(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, parsed.Name)
	assert.Equal(t, doc.Source, parsed.Source)
	assert.Equal(t, doc.Title, parsed.Title)
	assert.Equal(t, doc.Meta, parsed.Meta)
	assert.Equal(t, doc.Content, parsed.Content)
	assert.True(t, doc.ModTime.Equal(parsed.ModTime))
}

func TestParseDocumentXMLRejectsOtherRoots(t *testing.T) {
	_, err := parseDocumentXML([]byte(`<environment version="1"/>`))
	assert.True(t, errors.IsErrorCode(err, errors.ErrDoctreeRead))
}

func TestLoadEnvironmentFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  string
	}{
		{"garbage", "not xml at all <", "failed: unreadable environment"},
		{"old version", `<environment version="0"/>`, "failed: environment version changed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := newProject(t, map[string]string{
				"conf.toml":                       "",
				"_build/doctrees/environment.xml": tt.content,
			})
			app, status, _ := newTestApp(t, fsys, "xml")

			env, err := app.loadEnvironment()
			require.NoError(t, err)
			assert.False(t, env.loaded)
			assert.Contains(t, status.String(), "loading pickled environment... "+tt.status)
		})
	}
}

func TestFingerprintTracksBuilder(t *testing.T) {
	fsys := newProject(t, map[string]string{"conf.toml": ""})
	xmlApp, _, _ := newTestApp(t, fsys, "xml")
	textApp, _, _ := newTestApp(t, fsys, "text")

	assert.NotEqual(t, xmlApp.fingerprint(), textApp.fingerprint())
}
