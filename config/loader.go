package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkSize        = 1_000_000
	DefaultProgressInterval = 5
	// DefaultTransferXLSX is the subway transfer workbook name shipped with KTDB feeds.
	DefaultTransferXLSX = "202303_GTFS_도시철도환승정보.xlsx"
)

// SearchPaths are tried in order when no explicit config path is given.
var SearchPaths = []string{"config.yml", "./configs/config.yml"}

// Default returns the configuration used when no config file is present.
func Default() AppConfig {
	return AppConfig{
		Feed: FeedConfig{
			InputDir:  "data/gtfs/raw",
			OutputDir: "data/gtfs/otp",
			RequiredFiles: []string{
				"agency.txt",
				"calendar.txt",
				"stops.txt",
				"routes.txt",
				"trips.txt",
				"stop_times.txt",
			},
			CopyOnlyFiles: []string{
				"agency.txt",
				"calendar.txt",
				"calendar_dates.txt",
				"stops.txt",
				"trips.txt",
				"shapes.txt",
				"frequencies.txt",
			},
		},
		StopTimes: StopTimesConfig{
			ChunkSize:        DefaultChunkSize,
			ProgressInterval: DefaultProgressInterval,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadAppConfig loads the configuration from path, or from the first entry in
// SearchPaths that exists when path is empty. Missing search-path files fall
// back to Default; an explicit path that cannot be read is an error.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := Default()
	data, err := readConfig(path)
	if err != nil {
		return AppConfig{}, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.Feed.TransferXLSX == "" {
		cfg.Feed.TransferXLSX = DefaultTransferXLSX
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func readConfig(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return data, nil
	}
	for _, p := range SearchPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
	}
	return nil, nil
}
