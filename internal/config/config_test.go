package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "single-trial", cfg.SignalProc)
	assert.Equal(t, 50, cfg.NComps)
	assert.Equal(t, "dct", cfg.HighPassType)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boldfit.yaml")
	doc := `
signalproc_type: glmdenoise
n_comps: 10
hrf_model: kay
single_trial_noise_model: ar1
high_pass_type: savgol
high_pass: 0.02
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "glmdenoise", cfg.SignalProc)
	assert.Equal(t, 10, cfg.NComps)
	assert.Equal(t, "kay", cfg.HRFModel)
	assert.Equal(t, "ar1", cfg.NoiseModel)
	assert.Equal(t, "savgol", cfg.HighPassType)
	assert.InDelta(t, 0.02, cfg.HighPass, 0)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.CVSplits)
	assert.Equal(t, "lsa", cfg.TrialModel)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("n_components: 3\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Seed = 7
	cfg.Uncorrelation = true

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), "signalproc_type: single-trial")

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.SignalProc = "ica" }},
		{"hrf", func(c *Config) { c.HRFModel = "fir" }},
		{"high-pass type", func(c *Config) { c.HighPassType = "butter" }},
		{"noise model", func(c *Config) { c.NoiseModel = "ar2" }},
		{"trial model", func(c *Config) { c.TrialModel = "lsx" }},
		{"n_comps", func(c *Config) { c.NComps = 0 }},
		{"splits", func(c *Config) { c.CVSplits = 1 }},
		{"repeats", func(c *Config) { c.CVRepeats = 0 }},
		{"cutoff", func(c *Config) { c.HighPass = 0 }},
		{"slice time", func(c *Config) { c.SliceTimeRef = 1.5 }},
		{"uncorrelation label", func(c *Config) {
			c.Uncorrelation = true
			c.Unmodulated = ""
		}},
		{"uncorrelation with lss", func(c *Config) {
			c.Uncorrelation = true
			c.TrialModel = "lss"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.HighPassType = "none"
	cfg.HighPass = 0
	require.NoError(t, cfg.Validate())
}
