package config

// FeedConfig locates the source and destination feed directories
type FeedConfig struct {
	InputDir      string   `yaml:"inputDir" validate:"required"`
	OutputDir     string   `yaml:"outputDir" validate:"required"`
	TransferXLSX  string   `yaml:"transferXLSX" validate:"omitempty"`
	SkipTransfers bool     `yaml:"skipTransfers"`
	RequiredFiles []string `yaml:"requiredFiles" validate:"min=1,dive,required"`
	CopyOnlyFiles []string `yaml:"copyOnlyFiles" validate:"dive,required"`

	// EmptyTransfersOnSkip writes a header-only transfers.txt when no
	// transfers are generated
	EmptyTransfersOnSkip bool `yaml:"emptyTransfersOnSkip"`
}

// StopTimesConfig contains the chunked stop_times.txt rewrite settings
type StopTimesConfig struct {
	ChunkSize        int  `yaml:"chunkSize" validate:"gt=0"`
	ProgressInterval int  `yaml:"progressInterval" validate:"gt=0"`
	CleanupOnError   bool `yaml:"cleanupOnError"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig contains run metrics export settings
type MetricsConfig struct {
	TextfilePath string `yaml:"textfilePath" validate:"omitempty"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Feed      FeedConfig      `yaml:"feed" validate:"required"`
	StopTimes StopTimesConfig `yaml:"stopTimes" validate:"required"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
