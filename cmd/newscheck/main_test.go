package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"analyze", "watch", "serve", "history", "similar", "batch", "config", "version"} {
		assert.Contains(t, names, want)
	}

	history, _, err := root.Find([]string{"history", "export"})
	require.NoError(t, err)
	assert.Equal(t, "export", history.Name())
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "newscheck "+version+"\n", out.String())
}

func TestConfigPathCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "path", "--config", "/tmp/custom.yaml"})
	t.Cleanup(func() { configPath = "" })

	require.NoError(t, root.Execute())
	assert.Equal(t, "/tmp/custom.yaml\n", out.String())
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")
	path := t.TempDir() + "/config.yaml"
	t.Cleanup(func() { configPath = "" })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Created "+path)

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--config", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "classifier: heuristic")
	assert.Contains(t, out.String(), "sk-t****7890")
	assert.NotContains(t, out.String(), "sk-test-1234567890")

	root = newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "init", "--config", path})
	require.Error(t, root.Execute())
}

func TestAnalyzeCmd_EndToEnd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NEWSCHECK_ANALYSIS_LATENCY_MS", "0")
	t.Setenv("NEWSCHECK_SQLITE_PATH", t.TempDir()+"/history.db")
	t.Cleanup(func() { configPath = "" })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"analyze", "--json", "Shocking", "secret", "revealed"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"label": "FAKE"`)
	assert.Contains(t, out.String(), `"classifier": "heuristic"`)

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"history", "list"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Archived analyses (1)")
	assert.Contains(t, out.String(), "Shocking secret revealed")
}
