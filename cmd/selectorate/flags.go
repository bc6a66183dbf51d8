package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nvandessel/selectorate/internal/config"
)

// addSimFlags registers one flag per simulation option. Defaults shown in
// help are the built-in defaults; only flags set explicitly override the
// loaded configuration.
func addSimFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.String("config", "", "Config file (default: ./"+config.DefaultConfigFile+" if present)")

	f.Int("voters", d.NumVoters, "Number of voters")
	f.Int("candidates", d.NumCandidates, "Number of candidate slots")
	f.Int("generations", d.NumGenerations, "Number of generations")
	f.Int64("seed", d.RandomSeed, "Random seed")
	f.Float64("resources", d.Resources, "Candidate budget R")
	f.Float64("private-grant", d.PrivateGrant, "Minimum private-goods grant per coalition member")
	f.Float64("risk-bias", d.RiskBias, "Utility shift applied by risk profiles to high-variance candidates")
	f.Float64("sigma-alpha", d.SigmaAlpha, "Standard deviation of alpha mutations")
	f.Float64("tau-position", d.TauPosition, "Standard deviation of position mutations")
	f.String("position-mode", d.PositionMode, "Candidate positions: fixed or evolving")
	f.String("placement", d.Placement, "Initial candidate positions: spread or random")
	f.Float64("alpha-init", d.AlphaInit, "Initial alpha of every candidate")
	f.Bool("random-alpha", d.RandomAlpha, "Draw initial alphas uniformly from [0, 1]")
	f.Float64("risk-share", d.Voters.RiskSeekingShare, "Fraction of risk-seeking voters")
	f.String("risk-assignment", d.Voters.RiskAssignment, "Risk profile assignment: bernoulli or exact")
	f.String("voter-position", d.Voters.Position, "Voter position distribution: uniform or normal")

	f.String("trace-file", "", "Write one JSON line per generation (needs --log-level debug or trace)")
}

// loadConfig loads the configuration file and environment, then applies
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.SimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var applyErr error
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		if applyErr == nil {
			applyErr = applyFlag(cmd.Flags(), fl.Name, cfg)
		}
	})
	if applyErr != nil {
		return nil, applyErr
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlag(f *pflag.FlagSet, name string, cfg *config.SimConfig) error {
	var err error
	switch name {
	case "voters":
		cfg.NumVoters, err = f.GetInt(name)
	case "candidates":
		cfg.NumCandidates, err = f.GetInt(name)
	case "generations":
		cfg.NumGenerations, err = f.GetInt(name)
	case "seed":
		cfg.RandomSeed, err = f.GetInt64(name)
	case "resources":
		cfg.Resources, err = f.GetFloat64(name)
	case "private-grant":
		cfg.PrivateGrant, err = f.GetFloat64(name)
	case "risk-bias":
		cfg.RiskBias, err = f.GetFloat64(name)
	case "sigma-alpha":
		cfg.SigmaAlpha, err = f.GetFloat64(name)
	case "tau-position":
		cfg.TauPosition, err = f.GetFloat64(name)
	case "position-mode":
		cfg.PositionMode, err = f.GetString(name)
	case "placement":
		cfg.Placement, err = f.GetString(name)
	case "alpha-init":
		cfg.AlphaInit, err = f.GetFloat64(name)
	case "random-alpha":
		cfg.RandomAlpha, err = f.GetBool(name)
	case "risk-share":
		cfg.Voters.RiskSeekingShare, err = f.GetFloat64(name)
	case "risk-assignment":
		cfg.Voters.RiskAssignment, err = f.GetString(name)
	case "voter-position":
		cfg.Voters.Position, err = f.GetString(name)
	case "trace-file":
		cfg.Logging.TraceFile, err = f.GetString(name)
	case "csv-dir":
		cfg.Output.CSVDir, err = f.GetString(name)
	case "sqlite":
		cfg.Output.SQLitePath, err = f.GetString(name)
	case "votes":
		cfg.Output.IncludeVotes, err = f.GetBool(name)
	}
	if err != nil {
		return fmt.Errorf("flag --%s: %w", name, err)
	}
	return nil
}
