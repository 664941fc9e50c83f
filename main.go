package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"periph.io/x/host/v3"

	"github.com/waterbearfieldschool/diy-phone/contacts"
	"github.com/waterbearfieldschool/diy-phone/keypad"
	"github.com/waterbearfieldschool/diy-phone/modem"
	"github.com/waterbearfieldschool/diy-phone/store"
	"github.com/waterbearfieldschool/diy-phone/ui"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB2", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.String("storage-dir", "/sd/messages", "Directory for stored messages")
	flag.String("contacts-file", "/sd/contacts.csv", "Path to the contact list")
	flag.String("i2c-bus", "", "I2C bus the keypad sits on (empty picks the first)")
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	modemConfig, err := modem.NewConfigBuilder().
		WithATTimeout(5 * time.Second).
		WithInitTimeout(30 * time.Second).
		WithMaxRetries(5).
		WithSimPIN(config.SimPIN).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode: &serial.Mode{
				BaudRate: config.BaudRate,
				Parity:   serial.NoParity,
				DataBits: 8,
				StopBits: serial.OneStopBit,
			},
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		logger.Error("Failed to initialize peripheral host", "error", err)
		os.Exit(1)
	}

	keys, err := keypad.OpenI2C(config.I2CBus, keypad.DefaultAddr)
	if err != nil {
		logger.Error("Failed to open keypad", "error", err)
		os.Exit(1)
	}

	st, err := store.New(config.StorageDir)
	if err != nil {
		logger.Error("Failed to open message store", "error", err)
		os.Exit(1)
	}

	book := contacts.Load(config.ContactsFile)
	surface := ui.NewTerminal(os.Stdout)
	phone := NewPhone(m, st, book, keys, surface, logger.With("component", "phone"))

	logger.Info("Starting phone", "serial", config.SerialPort, "storage", config.StorageDir)

	go func() {
		if err := m.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Modem loop failed", "error", err)
			cancel()
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- phone.Run(ctx)
	}()

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Phone loop failed", "error", err)
		}
	}

	cancel()

	logger.Info("Closing keypad")
	if err := keys.Close(); err != nil {
		logger.Error("Failed to close keypad", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}
}
