package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultListenAddr       = "127.0.0.1:26680"
	DefaultChallengePeriod  = uint64(3 * 24 * 60 * 60)
	DefaultSettlementWindow = uint64(14 * 24 * 60 * 60)
	DefaultReporterBond     = uint64(350)
	DefaultChallengerBond   = uint64(700)
	DefaultPollInterval     = uint64(30)
)

type Config struct {
	Home string `mapstructure:"-"`

	// ServiceId scopes op signatures to one deployment.
	ServiceId  string `mapstructure:"service_id"`
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	DBDir     string `mapstructure:"db_dir"`
	LedgerDir string `mapstructure:"ledger_dir"`
	IndexDB   string `mapstructure:"index_db"`

	GatewayUrl string `mapstructure:"gateway_url"`

	// Challenge period and settlement window in seconds, fixed per
	// deployment.
	ChallengePeriod  uint64 `mapstructure:"challenge_period"`
	SettlementWindow uint64 `mapstructure:"settlement_window"`

	ReporterBond   uint64 `mapstructure:"reporter_bond"`
	ChallengerBond uint64 `mapstructure:"challenger_bond"`

	// Finalizers may finalize, escalate and create instances. Relayer may
	// deliver dispute verdicts on the oracle's behalf.
	Finalizers []string `mapstructure:"finalizers"`
	Relayer    string   `mapstructure:"relayer"`

	PollInterval uint64 `mapstructure:"poll_interval"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.reso")
	}
	return &Config{
		Home:             home,
		ServiceId:        "reso-local",
		ListenAddr:       DefaultListenAddr,
		LogLevel:         "info",
		DBDir:            filepath.Join(home, "data", "store"),
		LedgerDir:        filepath.Join(home, "data", "ledger"),
		IndexDB:          filepath.Join(home, "data", "index.db"),
		GatewayUrl:       "http://127.0.0.1:26690",
		ChallengePeriod:  DefaultChallengePeriod,
		SettlementWindow: DefaultSettlementWindow,
		ReporterBond:     DefaultReporterBond,
		ChallengerBond:   DefaultChallengerBond,
		Finalizers:       []string{},
		PollInterval:     DefaultPollInterval,
	}
}

func (c *Config) ValidateBasic() error {
	if c.ServiceId == "" {
		return errors.New("service_id is empty")
	}
	if c.ChallengePeriod == 0 {
		return errors.New("challenge_period must be positive")
	}
	if c.ReporterBond == 0 || c.ChallengerBond == 0 {
		return errors.New("bond amounts must be positive")
	}
	for _, f := range c.Finalizers {
		if !common.IsHexAddress(f) {
			return fmt.Errorf("finalizer %q is not a hex address", f)
		}
	}
	if c.Relayer != "" && !common.IsHexAddress(c.Relayer) {
		return fmt.Errorf("relayer %q is not a hex address", c.Relayer)
	}
	return nil
}

func (c *Config) ChallengePeriodDuration() time.Duration {
	return time.Duration(c.ChallengePeriod) * time.Second
}

func (c *Config) SettlementWindowDuration() time.Duration {
	return time.Duration(c.SettlementWindow) * time.Second
}

func (c *Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c *Config) FinalizerSet() map[common.Address]bool {
	set := make(map[common.Address]bool, len(c.Finalizers))
	for _, f := range c.Finalizers {
		set[common.HexToAddress(f)] = true
	}
	return set
}

func (c *Config) RelayerAddress() common.Address {
	return common.HexToAddress(c.Relayer)
}

func (c *Config) ConfigFile() string {
	return filepath.Join(c.Home, "config", "config.toml")
}

func (c *Config) KeyFile() string {
	return filepath.Join(c.Home, "config", "operator_key")
}

// EnsureRoot creates the home layout for config and data files.
func EnsureRoot(home string) error {
	for _, dir := range []string{
		filepath.Join(home, "config"),
		filepath.Join(home, "data"),
	} {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}
