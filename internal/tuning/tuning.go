// Package tuning loads the relay's yaml configuration.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BindAddr      string `yaml:"bind_addr"`
	DataDir       string `yaml:"data_dir"`
	ServerVersion string `yaml:"server_version"`

	DevWalletPubkey string  `yaml:"dev_wallet_pubkey"`
	RoomPrice       string  `yaml:"room_price"`
	UsernameFee     string  `yaml:"username_fee"`
	StarterCredit   float64 `yaml:"starter_credit"`
	FaucetDefault   float64 `yaml:"faucet_default"`

	Fee FeeConfig `yaml:"fee"`

	TickRateHz int     `yaml:"tick_rate_hz"`
	TrainSpeed float64 `yaml:"train_speed"` // tiles per second along the ring

	Heartbeat  Heartbeat  `yaml:"heartbeat"`
	RateLimits RateLimits `yaml:"rate_limits"`
}

type FeeConfig struct {
	Mode  string `yaml:"mode"` // bps | percent
	Value uint32 `yaml:"value"`
}

type Heartbeat struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// RateLimits are tick-window budgets per session; an exhausted window
// rejects the action with rate_limited.
type RateLimits struct {
	MoveWindowTicks    int `yaml:"move_window_ticks"`
	MoveMax            int `yaml:"move_max"`
	ChatWindowTicks    int `yaml:"chat_window_ticks"`
	ChatMax            int `yaml:"chat_max"`
	CommandWindowTicks int `yaml:"command_window_ticks"`
	CommandMax         int `yaml:"command_max"`
}

func Defaults() Config {
	return Config{
		BindAddr:        ":7667",
		DataDir:         "./data",
		ServerVersion:   "0.1",
		DevWalletPubkey: "dev",
		RoomPrice:       "1.0",
		UsernameFee:     "0.5",
		StarterCredit:   10,
		FaucetDefault:   5,
		Fee:             FeeConfig{Mode: "bps", Value: 100},
		TickRateHz:      5,
		TrainSpeed:      128,
		Heartbeat:       Heartbeat{IntervalSeconds: 15, TimeoutSeconds: 45},
		RateLimits: RateLimits{
			MoveWindowTicks:    1,
			MoveMax:            4,
			ChatWindowTicks:    25,
			ChatMax:            10,
			CommandWindowTicks: 25,
			CommandMax:         15,
		},
	}
}

// Load reads path over the defaults, so a partial file only overrides what
// it names.
func Load(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("relay.yaml: %w", err)
	}
	return cfg, nil
}
