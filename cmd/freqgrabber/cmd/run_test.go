package cmd

import (
	"bytes"
	"context"
	"fmt"
	"freqgrabber/internal/config"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeBNCServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		word := r.URL.Query().Get("theData")
		if word == "broken" {
			fmt.Fprint(w, `<html><head><title>Oops</title></head></html>`)
			return
		}
		fmt.Fprintf(
			w,
			`Your query "%s" returned 12 hits in 3 different texts (98,313,429 words [4,048 texts]; frequency: 0.12 instances per million words)`,
			word,
		)
	}))
	t.Cleanup(server.Close)
	return server
}

func setupRun(t *testing.T, words string) (config.Config, string) {
	t.Helper()
	server := fakeBNCServer(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "words.txt"), []byte(words), 0644))
	configFile := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`{
		word_list_file: "words.txt",
		engines: [
			{name: "BNC", username: "bob", password: "hunter2", output_file: "bnc.csv", base_url: %q}
		]
	}`, server.URL)), 0644))

	cfg, err := config.Load(configFile)
	require.NoError(t, err)
	return cfg, dir
}

func TestRun(t *testing.T) {
	cfg, dir := setupRun(t, "cat\n\ndog\n")
	dumpHttpDir = filepath.Join(dir, "http")
	t.Cleanup(func() { dumpHttpDir = "" })

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, cfg))

	csv, err := os.ReadFile(filepath.Join(dir, "bnc.csv"))
	require.NoError(t, err)
	require.Equal(t, "word,hit_count,per_million\ncat,12,0.12\ndog,12,0.12\n", string(csv))

	require.Contains(t, out.String(), "Getting data.. 2/2 (100%)\n")
	require.Contains(t, out.String(), "Done. saved to:\n"+filepath.Join(dir, "bnc.csv")+"\n")

	dumps, err := os.ReadDir(dumpHttpDir)
	require.NoError(t, err)
	require.Len(t, dumps, 2)
}

func TestRunStopsOnFailure(t *testing.T) {
	cfg, dir := setupRun(t, "cat\nbroken\ndog\n")

	out := &bytes.Buffer{}
	err := run(context.Background(), out, cfg)
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out.String(), `Error: can't get BNC results (page title: "Oops")`)
	require.NotContains(t, out.String(), "Done.")

	csv, err := os.ReadFile(filepath.Join(dir, "bnc.csv"))
	require.NoError(t, err)
	require.Equal(t, "word,hit_count,per_million\ncat,12,0.12\n", string(csv))
}

func TestRunInvalidConfig(t *testing.T) {
	cfg, _ := setupRun(t, "cat\n")
	cfg.Engines[0].Name = "COCA"

	err := run(context.Background(), &bytes.Buffer{}, cfg)
	require.EqualError(t, err, "Unknown query engine: COCA")
}

func TestRunContinueOnError(t *testing.T) {
	cfg, dir := setupRun(t, "cat\nbroken\ndog\n")
	cfg.ContinueOnError = true

	out := &bytes.Buffer{}
	err := run(context.Background(), out, cfg)
	require.EqualError(t, err, "1 queries failed, their words are missing from the output")
	require.Contains(t, out.String(), "Done. saved to:")

	csv, err := os.ReadFile(filepath.Join(dir, "bnc.csv"))
	require.NoError(t, err)
	require.Equal(t, "word,hit_count,per_million\ncat,12,0.12\ndog,12,0.12\n", string(csv))
}
