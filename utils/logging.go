package utils

import (
	"os"

	logger "github.com/sirupsen/logrus"
)

// LogWriter holds the log file handle so it can be closed on shutdown.
type LogWriter struct {
	logFile *os.File
}

// InitLogger configures the standard logrus logger from the global config.
func InitLogger() (*LogWriter, *logger.Logger) {
	logWriter := &LogWriter{}
	log := logger.StandardLogger()

	logLevel := logger.InfoLevel
	if Config.Logging.OutputLevel != "" {
		parsedLevel, err := logger.ParseLevel(Config.Logging.OutputLevel)
		if err != nil {
			log.WithError(err).Warnf("invalid log level %v, using info", Config.Logging.OutputLevel)
		} else {
			logLevel = parsedLevel
		}
	}
	log.SetLevel(logLevel)

	if Config.Logging.OutputStderr {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(os.Stdout)
	}

	if Config.Logging.FilePath != "" {
		logFile, err := os.OpenFile(Config.Logging.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Errorf("could not open log file %v", Config.Logging.FilePath)
		} else {
			fileLevel := logLevel
			if Config.Logging.FileLevel != "" {
				parsedLevel, err := logger.ParseLevel(Config.Logging.FileLevel)
				if err == nil {
					fileLevel = parsedLevel
				}
			}
			logWriter.logFile = logFile
			log.AddHook(&fileLogHook{
				file:      logFile,
				level:     fileLevel,
				formatter: &logger.TextFormatter{DisableColors: true},
			})
		}
	}

	return logWriter, log
}

// Dispose closes the log file if one was opened.
func (lw *LogWriter) Dispose() {
	if lw.logFile != nil {
		lw.logFile.Close()
		lw.logFile = nil
	}
}

type fileLogHook struct {
	file      *os.File
	level     logger.Level
	formatter logger.Formatter
}

func (hook *fileLogHook) Levels() []logger.Level {
	levels := []logger.Level{}
	for _, level := range logger.AllLevels {
		if level <= hook.level {
			levels = append(levels, level)
		}
	}
	return levels
}

func (hook *fileLogHook) Fire(entry *logger.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = hook.file.Write(line)
	return err
}
