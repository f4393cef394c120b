// Package benchconfig loads the scenario file cmd/poolctl's bench
// subcommand runs against: how many worker slots to allow and what mix
// of synthetic jobs to submit.
package benchconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JobKind selects a synthetic job shape bench can generate.
type JobKind string

const (
	// KindFast returns immediately.
	KindFast JobKind = "fast"
	// KindSleep blocks for Duration before returning.
	KindSleep JobKind = "sleep"
	// KindFail returns a non-zero SignalFunc result, killing its worker.
	KindFail JobKind = "fail"
)

// JobMix is one entry in a Scenario's job mix: Count jobs of Kind,
// each taking about Duration when Kind is KindSleep.
type JobMix struct {
	Kind     JobKind       `yaml:"kind"`
	Count    int           `yaml:"count"`
	Duration time.Duration `yaml:"duration"`
}

// Scenario describes one bench run.
type Scenario struct {
	Name       string   `yaml:"name"`
	MaxThreads uint     `yaml:"max_threads"`
	Jobs       []JobMix `yaml:"jobs"`
}

// Default returns a small scenario usable without a config file.
func Default() *Scenario {
	return &Scenario{
		Name:       "default",
		MaxThreads: 4,
		Jobs: []JobMix{
			{Kind: KindFast, Count: 50},
			{Kind: KindSleep, Count: 10, Duration: 50 * time.Millisecond},
		},
	}
}

// Load reads a Scenario from a YAML file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("benchconfig: %w", err)
	}

	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("benchconfig: parsing %s: %w", path, err)
	}
	if s.MaxThreads == 0 {
		s.MaxThreads = 4
	}
	return s, nil
}
