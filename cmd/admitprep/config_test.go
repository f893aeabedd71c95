package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigFormats(t *testing.T) {
	files := map[string]string{
		"c.json": `{"input":{"path":"in.csv"},"output":{"format":"parquet"},"clean":{"strict":true}}`,
		"c.yaml": "input:\n  path: in.csv\noutput:\n  format: parquet\nclean:\n  strict: true\n",
		"c.toml": "[input]\npath = \"in.csv\"\n[output]\nformat = \"parquet\"\n[clean]\nstrict = true\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			require.NoError(t, loadConfigFile(writeFile(t, name, body), &cfg))
			assert.Equal(t, "in.csv", cfg.Input.Path)
			assert.Equal(t, "parquet", cfg.Output.Format)
			assert.True(t, cfg.Clean.Strict)
			assert.Equal(t, defaultOutput, cfg.Output.Path, "absent fields keep defaults")
		})
	}
}

func TestLoadConfigUnknownExtension(t *testing.T) {
	cfg := defaultConfig()
	err := loadConfigFile(writeFile(t, "c.ini", "x=1"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ADMITPREP_INPUT", "env.csv")
	t.Setenv("ADMITPREP_FORMAT", "jsonl")
	t.Setenv("ADMITPREP_LOG_LEVEL", "debug")
	t.Setenv("ADMITPREP_STRICT", "true")
	t.Setenv("ADMITPREP_CHUNK_SIZE", "64")
	t.Setenv("OUTPUT", "bare.csv")
	cfg := defaultConfig()
	require.NoError(t, applyEnv(&cfg))
	assert.Equal(t, "env.csv", cfg.Input.Path)
	assert.Equal(t, defaultOutput, cfg.Output.Path)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Clean.Strict)
	assert.Equal(t, 64, cfg.Input.ChunkSize)
	assert.False(t, cfg.Log.JSON, "unset booleans keep their value")
}

func TestApplyEnvInvalidValue(t *testing.T) {
	t.Setenv("ADMITPREP_CHUNK_SIZE", "lots")
	cfg := defaultConfig()
	err := applyEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestEnvOverridesKeepEmptyFields(t *testing.T) {
	off := false
	cfg := defaultConfig()
	cfg.Clean.Strict = true
	envOverrides{Output: "o.parquet", Strict: &off}.apply(&cfg)
	assert.Equal(t, defaultInput, cfg.Input.Path)
	assert.Equal(t, "o.parquet", cfg.Output.Path)
	assert.False(t, cfg.Clean.Strict)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFlagsOverrideEnvAndFile(t *testing.T) {
	conf := writeFile(t, "c.json", `{"input":{"path":"file.csv"},"output":{"path":"file-out.csv"},"report":"r.json"}`)
	t.Setenv("ADMITPREP_INPUT", "env.csv")
	t.Setenv("ADMITPREP_OUTPUT", "")
	cfg, _, err := parseConfig([]string{"-config", conf, "-input", "flag.csv", "-strict"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "flag.csv", cfg.Input.Path)
	assert.Equal(t, "file-out.csv", cfg.Output.Path)
	assert.Equal(t, "r.json", cfg.Report)
	assert.True(t, cfg.Clean.Strict)
}

func TestOutputFormat(t *testing.T) {
	cases := map[string]string{
		"out.csv":      "csv",
		"out.csv.gz":   "csv",
		"out.jsonl.gz": "jsonl",
		"out.parquet":  "parquet",
		"out.xlsx":     "xlsx",
		"runs.db":      "sqlite",
		"train.arff":   "arff",
		"no-extension": "csv",
	}
	for path, want := range cases {
		got, err := outputFormat(OutputConfig{Path: path})
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
	got, err := outputFormat(OutputConfig{Path: "x.csv", Format: "XLSX"})
	require.NoError(t, err)
	assert.Equal(t, "xlsx", got)
	_, err = outputFormat(OutputConfig{Format: "feather"})
	require.Error(t, err)
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, rune(0), delimiter(""))
	assert.Equal(t, '\t', delimiter(`\t`))
	assert.Equal(t, ';', delimiter(";"))
}
