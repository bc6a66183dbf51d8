// Package config provides configuration loading for selectorate.
// Values come from defaults, an optional YAML file and SELECTORATE_*
// environment variables, in that order. The resulting SimConfig is treated
// as immutable once a run starts.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/selectorate/internal/constants"
	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/evolution"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/pathutil"
	"github.com/nvandessel/selectorate/internal/population"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "selectorate.yaml"

// SimConfig contains every recognized option of a simulation run.
type SimConfig struct {
	NumVoters      int   `json:"num_voters" yaml:"num_voters" env:"SELECTORATE_NUM_VOTERS"`
	NumCandidates  int   `json:"num_candidates" yaml:"num_candidates" env:"SELECTORATE_NUM_CANDIDATES"`
	NumGenerations int   `json:"num_generations" yaml:"num_generations" env:"SELECTORATE_NUM_GENERATIONS"`
	RandomSeed     int64 `json:"random_seed" yaml:"random_seed" env:"SELECTORATE_RANDOM_SEED"`

	// Resources is the budget R of every candidate.
	Resources float64 `json:"resources" yaml:"resources" env:"SELECTORATE_RESOURCES"`

	// PrivateGrant is the minimum private-goods grant per coalition member.
	PrivateGrant float64 `json:"private_grant" yaml:"private_grant" env:"SELECTORATE_PRIVATE_GRANT"`

	// RiskBias is the utility shift risk profiles apply to high-variance candidates.
	RiskBias float64 `json:"risk_bias" yaml:"risk_bias" env:"SELECTORATE_RISK_BIAS"`

	SigmaAlpha   float64 `json:"sigma_alpha" yaml:"sigma_alpha" env:"SELECTORATE_SIGMA_ALPHA"`
	TauPosition  float64 `json:"tau_position" yaml:"tau_position" env:"SELECTORATE_TAU_POSITION"`
	PositionMode string  `json:"position_mode" yaml:"position_mode" env:"SELECTORATE_POSITION_MODE"`

	// Placement is "spread" or "random" initial candidate positions.
	Placement   string  `json:"placement" yaml:"placement" env:"SELECTORATE_PLACEMENT"`
	AlphaInit   float64 `json:"alpha_init" yaml:"alpha_init" env:"SELECTORATE_ALPHA_INIT"`
	RandomAlpha bool    `json:"random_alpha" yaml:"random_alpha" env:"SELECTORATE_RANDOM_ALPHA"`

	Voters  VoterConfig   `json:"voters" yaml:"voters"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Output  OutputConfig  `json:"output" yaml:"output"`
}

// VoterConfig describes the electorate's distributions.
type VoterConfig struct {
	// RiskSeekingShare is the fraction of risk-seeking voters. Range: 0.0 to 1.0
	RiskSeekingShare float64 `json:"risk_seeking_share" yaml:"risk_seeking_share" env:"SELECTORATE_RISK_SEEKING_SHARE"`

	// RiskAssignment is "bernoulli" or "exact".
	RiskAssignment string `json:"risk_assignment" yaml:"risk_assignment" env:"SELECTORATE_RISK_ASSIGNMENT"`

	// Position is "uniform" or "normal".
	Position       string  `json:"position" yaml:"position" env:"SELECTORATE_VOTER_POSITION"`
	PositionLow    float64 `json:"position_low" yaml:"position_low" env:"SELECTORATE_VOTER_POSITION_LOW"`
	PositionHigh   float64 `json:"position_high" yaml:"position_high" env:"SELECTORATE_VOTER_POSITION_HIGH"`
	PositionMean   float64 `json:"position_mean" yaml:"position_mean" env:"SELECTORATE_VOTER_POSITION_MEAN"`
	PositionStdDev float64 `json:"position_stddev" yaml:"position_stddev" env:"SELECTORATE_VOTER_POSITION_STDDEV"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the per-round JSONL trace when a trace file is set.
	Level string `json:"level" yaml:"level" env:"SELECTORATE_LOG_LEVEL"`

	// TraceFile receives one JSON line per generation at debug level or below.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty" env:"SELECTORATE_TRACE_FILE"`
}

// OutputConfig selects the report sinks. Paths support ${VAR} expansion.
type OutputConfig struct {
	CSVDir     string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty" env:"SELECTORATE_CSV_DIR"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" env:"SELECTORATE_SQLITE_PATH"`

	// IncludeVotes exports one row per voter per generation.
	IncludeVotes bool `json:"include_votes" yaml:"include_votes" env:"SELECTORATE_INCLUDE_VOTES"`
}

// Default returns the reference experiment: 100 voters, 4 candidates, R=1000.
func Default() *SimConfig {
	pos := population.DefaultPositionDistribution()
	return &SimConfig{
		NumVoters:      constants.DefaultNumVoters,
		NumCandidates:  constants.DefaultNumCandidates,
		NumGenerations: constants.DefaultNumGenerations,
		RandomSeed:     constants.DefaultRandomSeed,
		Resources:      constants.DefaultResources,
		PrivateGrant:   constants.DefaultPrivateGrant,
		RiskBias:       constants.DefaultRiskBias,
		SigmaAlpha:     constants.DefaultSigmaAlpha,
		TauPosition:    constants.DefaultTauPosition,
		PositionMode:   string(evolution.PositionEvolving),
		Placement:      string(population.PlacementSpread),
		AlphaInit:      constants.DefaultInitialAlpha,
		Voters: VoterConfig{
			RiskSeekingShare: constants.DefaultRiskSeekingShare,
			RiskAssignment:   string(population.RiskBernoulli),
			Position:         string(pos.Kind),
			PositionLow:      pos.Low,
			PositionHigh:     pos.High,
			PositionMean:     pos.Mean,
			PositionStdDev:   pos.StdDev,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path (or DefaultConfigFile when path is
// empty and the file exists) and applies environment overrides.
// Order: defaults -> YAML file -> environment variables
func Load(path string) (*SimConfig, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileConfig
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the
// defaults.
func LoadFromFile(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.expandPaths()
	return cfg, nil
}

// ApplyEnv overrides cfg with any SELECTORATE_* variables that are set.
func ApplyEnv(cfg *SimConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.expandPaths()
	return nil
}

// Validate checks every option and returns the first violated constraint as
// an error wrapping models.ErrInvalidConfiguration.
func (c *SimConfig) Validate() error {
	if c.NumVoters <= 0 {
		return models.InvalidConfig("num_voters", "must be positive, got %d", c.NumVoters)
	}
	if c.NumCandidates <= 0 {
		return models.InvalidConfig("num_candidates", "must be positive, got %d", c.NumCandidates)
	}
	if c.NumGenerations <= 0 {
		return models.InvalidConfig("num_generations", "must be positive, got %d", c.NumGenerations)
	}
	if !(c.Resources > 0) {
		return models.InvalidConfig("resources", "must be positive, got %g", c.Resources)
	}
	if !c.RandomAlpha && (c.AlphaInit < 0 || c.AlphaInit > 1) {
		return models.InvalidConfig("alpha_init", "must be in [0, 1], got %g", c.AlphaInit)
	}
	if p := population.Placement(c.Placement); p != population.PlacementSpread && p != population.PlacementRandom {
		return models.InvalidConfig("placement", "unknown placement %q (valid: spread, random)", c.Placement)
	}
	if err := c.RiskDistribution().Validate(); err != nil {
		return err
	}
	if err := c.PositionDistribution().Validate(); err != nil {
		return err
	}
	if err := c.ElectionParams().Validate(); err != nil {
		return err
	}
	if err := c.EvolutionParams().Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return models.InvalidConfig("logging.level", "invalid level %q (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// ElectionParams returns the election engine parameters.
func (c *SimConfig) ElectionParams() election.Params {
	return election.Params{PrivateGrant: c.PrivateGrant, RiskBias: c.RiskBias}
}

// EvolutionParams returns the mutation parameters.
func (c *SimConfig) EvolutionParams() evolution.Params {
	return evolution.Params{
		SigmaAlpha:   c.SigmaAlpha,
		TauPosition:  c.TauPosition,
		PositionMode: evolution.PositionMode(c.PositionMode),
	}
}

// RiskDistribution returns the electorate's risk mix.
func (c *SimConfig) RiskDistribution() population.RiskDistribution {
	return population.RiskDistribution{
		SeekingShare: c.Voters.RiskSeekingShare,
		Assignment:   population.RiskAssignment(c.Voters.RiskAssignment),
	}
}

// PositionDistribution returns the electorate's ideology distribution.
func (c *SimConfig) PositionDistribution() population.PositionDistribution {
	return population.PositionDistribution{
		Kind:   population.PositionKind(c.Voters.Position),
		Low:    c.Voters.PositionLow,
		High:   c.Voters.PositionHigh,
		Mean:   c.Voters.PositionMean,
		StdDev: c.Voters.PositionStdDev,
	}
}

// InitialAlpha returns the pool's alpha initialization.
func (c *SimConfig) InitialAlpha() population.AlphaInit {
	return population.AlphaInit{Value: c.AlphaInit, Random: c.RandomAlpha}
}

// WithSeed returns a copy of c using seed.
func (c *SimConfig) WithSeed(seed int64) *SimConfig {
	cp := *c
	cp.RandomSeed = seed
	return &cp
}

func (c *SimConfig) expandPaths() {
	c.Output.CSVDir = pathutil.Expand(c.Output.CSVDir)
	c.Output.SQLitePath = pathutil.Expand(c.Output.SQLitePath)
	c.Logging.TraceFile = pathutil.Expand(c.Logging.TraceFile)
}
