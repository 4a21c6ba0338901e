package core

import (
	"errors"

	"github.com/spf13/viper"
)

// Config is the process-wide training configuration. It is read-only once
// loaded.
type Config struct {
	Tasks    []string           `mapstructure:"tasks" yaml:"tasks"`
	DataDir  string             `mapstructure:"data_dir" yaml:"data_dir"`
	TasksDir string             `mapstructure:"tasks_dir" yaml:"tasks_dir"`
	Training TrainingParameters `mapstructure:"training_parameters" yaml:"training_parameters"`
}

// TrainingParameters mirrors the training_parameters section of the config
// file.
type TrainingParameters struct {
	BatchSize     int    `mapstructure:"batch_size" yaml:"batch_size"`
	NumWorkers    int    `mapstructure:"num_workers" yaml:"num_workers"`
	PinMemory     bool   `mapstructure:"pin_memory" yaml:"pin_memory"`
	Device        string `mapstructure:"device" yaml:"device"`
	LocalRank     *int   `mapstructure:"local_rank" yaml:"local_rank"`
	Distributed   bool   `mapstructure:"distributed" yaml:"distributed"`
	WorldSize     int    `mapstructure:"world_size" yaml:"world_size"`
	ShouldNotLog  bool   `mapstructure:"should_not_log" yaml:"should_not_log"`
	EvalAIPredict bool   `mapstructure:"evalai_predict" yaml:"evalai_predict"`
	VerboseDump   bool   `mapstructure:"verbose_dump" yaml:"verbose_dump"`
	Seed          int64  `mapstructure:"seed" yaml:"seed"`
}

// WorldSize returns the number of cooperating distributed workers sharing one
// global batch. Outside distributed mode there is exactly one.
func (c Config) WorldSize() int {
	if !c.Training.Distributed || c.Training.WorldSize <= 0 {
		return 1
	}
	return c.Training.WorldSize
}

// LoadConfig reads a YAML config file. A missing file yields zero-value
// defaults; env vars may override individual keys.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".mmf")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
