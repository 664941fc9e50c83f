package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB2")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// SimPIN is the SIM card PIN code
	SimPIN string `yaml:"sim_pin"`
	// StorageDir is where message files live (e.g. "/sd/messages")
	StorageDir string `yaml:"storage_dir"`
	// ContactsFile is the path of the contact list (e.g. "/sd/contacts.csv")
	ContactsFile string `yaml:"contacts_file"`
	// I2CBus names the bus the keypad sits on. Empty selects the first
	// available bus.
	I2CBus string `yaml:"i2c_bus"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB2"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.StorageDir = "/sd/messages"
		c.ContactsFile = "/sd/contacts.csv"
		return nil
	}
}

// WithFile overlays values from a YAML config file. A missing file is not
// an error; the path is optional.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if simPIN := os.Getenv("SIM_PIN"); simPIN != "" {
			c.SimPIN = simPIN
		}

		if dir := os.Getenv("STORAGE_DIR"); dir != "" {
			c.StorageDir = dir
		}

		if path := os.Getenv("CONTACTS_FILE"); path != "" {
			c.ContactsFile = path
		}

		if bus := os.Getenv("I2C_BUS"); bus != "" {
			c.I2CBus = bus
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "sim-pin":
				c.SimPIN = f.Value.String()
			case "storage-dir":
				c.StorageDir = f.Value.String()
			case "contacts-file":
				c.ContactsFile = f.Value.String()
			case "i2c-bus":
				c.I2CBus = f.Value.String()
			}

		})
		return nil
	}

}
