package main

import (
	"context"
	"embed"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/voxfield/minesweeper3d-server/internal/app"
	"github.com/voxfield/minesweeper3d-server/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

var logFilePath string

func init() {
	const (
		defaultLogFile = ""
		usage          = "rotating log file path (empty disables file logging)"
	)
	flag.StringVar(&logFilePath, "log-file", defaultLogFile, usage)
	flag.StringVar(&logFilePath, "l", defaultLogFile, usage+" (shorthand)")
}

func setupLogging(log *logrus.Logger) error {
	if config.Development() {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	if logFilePath == "" {
		return nil
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   logFilePath,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Level:      logrus.InfoLevel,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		return err
	}
	log.AddHook(hook)
	return nil
}

func main() {
	flag.Parse()

	log := logrus.New()
	if err := setupLogging(log); err != nil {
		log.Fatal("unable to set up logging: ", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	a := app.New(log, migrations)
	if err := a.Start(ctx); err != nil {
		log.Fatal("exit reason: ", err)
	}
}
