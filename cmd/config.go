package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/vouch/pkg/suite"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "vouch"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."
	envPrefix        = "VOUCH"

	outputFlagName  = "output"
	excludeFlagName = "exclude"
	verboseFlagName = "verbose"
	logFileFlagName = "log-file"
	timeoutFlagName = "timeout"
	shardFlagName   = "shard"

	runTimeoutKey    = "run.timeout"
	excludeConfigKey = "paths.exclude"
	logFilenameKey   = "log.filename"
	logVerboseKey    = "log.verbose"

	defaultRunTimeout = suite.DefaultTimeout
	defaultReportsDir = ".vouch-reports"
)

// logSettings is the log section of vouch.yaml.
type logSettings struct {
	Filename   string
	Level      string
	Verbose    bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

var defaultLogSettings = logSettings{
	Filename:   ".vouch.log",
	Level:      "info",
	MaxSize:    10,
	MaxBackups: 3,
	MaxAge:     28,
	Compress:   true,
}

// configReadErr keeps a vouch.yaml that exists but could not be parsed; it
// is reported once logging is set up.
var configReadErr error

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	defaults := map[string]any{
		configVersionKey: currentConfigVersion,
		outputFlagName:   defaultReportsDir,
		runTimeoutKey:    defaultRunTimeout.String(),
		excludeConfigKey: []string{},

		logFilenameKey:    defaultLogSettings.Filename,
		"log.level":       defaultLogSettings.Level,
		logVerboseKey:     defaultLogSettings.Verbose,
		"log.max_size":    defaultLogSettings.MaxSize,
		"log.max_backups": defaultLogSettings.MaxBackups,
		"log.max_age":     defaultLogSettings.MaxAge,
		"log.compress":    defaultLogSettings.Compress,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	configReadErr = readConfigFile()
}

// readConfigFile loads vouch.yaml when present. A missing file is not an error.
func readConfigFile() error {
	err := viper.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func readLogSettings() logSettings {
	settings := logSettings{
		Filename:   strings.TrimSpace(viper.GetString(logFilenameKey)),
		Level:      viper.GetString("log.level"),
		Verbose:    viper.GetBool(logVerboseKey),
		MaxSize:    viper.GetInt("log.max_size"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAge:     viper.GetInt("log.max_age"),
		Compress:   viper.GetBool("log.compress"),
	}

	if settings.Filename == "" {
		settings.Filename = defaultLogSettings.Filename
	}

	return settings
}

// runTimeout reads run.timeout as a duration string ("250ms") or a number of
// seconds, falling back to the engine default.
func runTimeout() time.Duration {
	raw := strings.TrimSpace(viper.GetString(runTimeoutKey))
	if raw == "" {
		return defaultRunTimeout
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}

	if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}

	slog.Warn("Ignoring invalid run timeout", "value", raw)

	return defaultRunTimeout
}

// parseSlogLevel accepts slog level names ("debug", "WARN+2"), "warning"
// and numeric levels.
func parseSlogLevel(value string, fallback slog.Level) slog.Level {
	value = strings.TrimSpace(value)

	if strings.EqualFold(value, "warning") {
		return slog.LevelWarn
	}

	if n, err := strconv.Atoi(value); err == nil {
		return slog.Level(n)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}

	return level
}

// configureLogger points the default slog logger at a rotating log file.
// Verbose runs log at debug level.
func configureLogger(settings logSettings) {
	level := parseSlogLevel(settings.Level, slog.LevelInfo)
	if settings.Verbose {
		level = slog.LevelDebug
	}

	writer := &lumberjack.Logger{
		Filename:   settings.Filename,
		MaxSize:    settings.MaxSize,
		MaxBackups: settings.MaxBackups,
		MaxAge:     settings.MaxAge,
		Compress:   settings.Compress,
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})))

	if configReadErr != nil {
		slog.Warn("Ignoring unreadable config file", "path", configFileName, "error", configReadErr)
	}
}
