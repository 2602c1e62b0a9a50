// Package logger предоставляет структурированное логирование на базе zerolog.
// JSON для production, pretty-print для разработки. Сообщения пишутся на русском.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// log — глобальный логгер сервиса.
var log zerolog.Logger

// Config содержит настройки инициализации логгера.
type Config struct {
	// Level — минимальный уровень: "debug", "info", "warn", "error".
	Level string

	// Pretty включает цветной консольный вывод вместо JSON.
	Pretty bool

	// Output — writer для вывода. По умолчанию os.Stdout.
	Output io.Writer
}

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	Init(Config{
		Level:  level,
		Pretty: strings.EqualFold(os.Getenv("LOG_PRETTY"), "true"),
	})
}

// Init инициализирует глобальный логгер. Вызывается в начале main
// после загрузки конфигурации.
func Init(cfg Config) {
	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)

	log = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug создаёт событие уровня debug.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info создаёт событие уровня info.
func Info() *zerolog.Event {
	return log.Info()
}

// Warn создаёт событие уровня warn.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error создаёт событие уровня error.
func Error() *zerolog.Event {
	return log.Error()
}

// Fatal создаёт событие уровня fatal. После Msg() процесс завершится с кодом 1.
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// With создаёт новый логгер с дополнительными полями.
func With() zerolog.Context {
	return log.With()
}

// Logger возвращает глобальный экземпляр zerolog.Logger.
func Logger() zerolog.Logger {
	return log
}

// SetGlobalLogger подменяет глобальный логгер. Используется в тестах.
func SetGlobalLogger(l zerolog.Logger) {
	log = l
}
