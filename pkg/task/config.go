package task

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tirkarthi/mmf/pkg/core"
)

// LoadTaskConfig reads tasks/<name>/config.yml under tasksDir. A missing
// file logs a warning and a malformed one logs the parse error; both degrade
// to an empty config rather than failing the run.
func LoadTaskConfig(tasksDir, name string, logger *zap.Logger) core.TaskConfig {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := filepath.Join(tasksDir, name, "config.yml")

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("no config present for task",
			zap.String("task", name),
			zap.String("path", path),
		)
		return core.TaskConfig{}
	}

	cfg := core.TaskConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("task config yaml error",
			zap.String("task", name),
			zap.String("path", path),
			zap.Error(err),
		)
		return core.TaskConfig{}
	}
	if cfg == nil {
		cfg = core.TaskConfig{}
	}
	return cfg
}
