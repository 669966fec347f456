package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New пишет JSON в ротируемый файл и дублирует вывод в консоль.
// Пустой logFilePath отключает файловый вывод.
func New(logFilePath string, isProd bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	consoleEncoder := jsonEncoder
	consoleLevel := zap.InfoLevel
	if !isProd {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleLevel = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), consoleLevel),
	}

	if logFilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // дней
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), zap.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
