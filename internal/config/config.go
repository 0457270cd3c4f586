// Package config holds the run configuration of the denoising pipeline and
// its YAML representation.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/glm/fit"
	"github.com/cwbudde/algo-bold/glm/noise"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate and Load for unusable settings.
var ErrInvalid = errors.New("config: invalid")

// Config mirrors the upstream option names.
type Config struct {
	SignalProc    string  `yaml:"signalproc_type"`
	SkipNoise     bool    `yaml:"skip_noise"`
	NComps        int     `yaml:"n_comps"`
	CVSplits      int     `yaml:"cv_splits"`
	CVRepeats     int     `yaml:"cv_repeats"`
	Seed          uint64  `yaml:"seed"`
	HRFModel      string  `yaml:"hrf_model"`
	NoiseModel    string  `yaml:"single_trial_noise_model"`
	TrialModel    string  `yaml:"single_trial_model"`
	TrialID       string  `yaml:"single_trial_id"`
	Uncorrelation bool    `yaml:"uncorrelation"`
	Unmodulated   string  `yaml:"unmodulated_label"`
	HighPassType  string  `yaml:"high_pass_type"`
	HighPass      float64 `yaml:"high_pass"`
	SliceTimeRef  float64 `yaml:"slice_time_ref"`
	Workers       int     `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SignalProc:   string(noise.ModeSingleTrial),
		NComps:       noise.DefaultNComps,
		CVSplits:     noise.DefaultSplits,
		CVRepeats:    noise.DefaultRepeats,
		HRFModel:     string(hrf.ModelGlover),
		NoiseModel:   string(fit.NoiseOLS),
		TrialModel:   string(fit.TrialLSA),
		Unmodulated:  fit.DefaultUnmodulated,
		HighPassType: string(clean.HighPassDCT),
		HighPass:     noise.DefaultHighPass,
		SliceTimeRef: noise.DefaultSliceTimeRef,
	}
}

// Load reads a YAML file on top of Default and validates the result.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode is Load for an arbitrary reader. An empty document yields Default.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks names and ranges without touching any data.
func (c Config) Validate() error {
	if _, err := noise.ParseMode(c.SignalProc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := hrf.ParseModel(c.HRFModel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := clean.ParseHighPass(c.HighPassType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := fit.ParseNoiseModel(c.NoiseModel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	tm, err := fit.ParseTrialModel(c.TrialModel)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch {
	case c.NComps < 1:
		return fmt.Errorf("%w: n_comps %d", ErrInvalid, c.NComps)
	case c.CVSplits < 2:
		return fmt.Errorf("%w: cv_splits %d", ErrInvalid, c.CVSplits)
	case c.CVRepeats < 1:
		return fmt.Errorf("%w: cv_repeats %d", ErrInvalid, c.CVRepeats)
	case c.HighPassType != string(clean.HighPassNone) && !(c.HighPass > 0):
		return fmt.Errorf("%w: high_pass %v", ErrInvalid, c.HighPass)
	case c.SliceTimeRef < 0 || c.SliceTimeRef > 1:
		return fmt.Errorf("%w: slice_time_ref %v", ErrInvalid, c.SliceTimeRef)
	case c.Uncorrelation && c.Unmodulated == "":
		return fmt.Errorf("%w: uncorrelation needs an unmodulated label", ErrInvalid)
	case c.Uncorrelation && tm == fit.TrialLSS:
		return fmt.Errorf("%w: uncorrelation cannot be combined with lss", ErrInvalid)
	}
	return nil
}
