package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects the level and an optional rotating log file.  When File
// is empty logs go to stdout only.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func LoadLogConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}
}

// SetupLogger configures the global logrus logger: JSON outside dev, the
// configured level, and stdout plus a lumberjack-rotated file if requested.
func SetupLogger(env string, lc LogConfig) {
	if env == "dev" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	var out io.Writer = os.Stdout
	if lc.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   true,
		})
	}
	logrus.SetOutput(out)
}
