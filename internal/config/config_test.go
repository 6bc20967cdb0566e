package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestEnvironmentVariableConfiguration(t *testing.T) {
	tests := []struct {
		name         string
		envKey       string
		envValue     string
		viperKey     string
		defaultValue string
		expected     string
		setEnv       bool
	}{
		{
			name:         "COSTOPT_DB_HOST environment variable overrides default",
			envKey:       "COSTOPT_DB_HOST",
			envValue:     "custom-db-host",
			viperKey:     "COSTOPT_DB_HOST",
			defaultValue: "localhost",
			expected:     "custom-db-host",
			setEnv:       true,
		},
		{
			name:         "COSTOPT_DB_PORT uses default when environment variable not set",
			envKey:       "COSTOPT_DB_PORT",
			envValue:     "",
			viperKey:     "COSTOPT_DB_PORT",
			defaultValue: "15432",
			expected:     "15432",
			setEnv:       false,
		},
		{
			name:         "KAFKA_BOOTSTRAP_SERVERS environment variable overrides default",
			envKey:       "KAFKA_BOOTSTRAP_SERVERS",
			envValue:     "kafka:9092",
			viperKey:     "KAFKA_BOOTSTRAP_SERVERS",
			defaultValue: "localhost:29092",
			expected:     "kafka:9092",
			setEnv:       true,
		},
		{
			name:         "SAMPLES_TOPIC uses default when not set",
			envKey:       "SAMPLES_TOPIC",
			envValue:     "",
			viperKey:     "SAMPLES_TOPIC",
			defaultValue: "costopt.telemetry.samples",
			expected:     "costopt.telemetry.samples",
			setEnv:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper for each test
			viper.Reset()

			_ = os.Unsetenv(tt.envKey)

			if tt.setEnv {
				err := os.Setenv(tt.envKey, tt.envValue)
				if err != nil {
					t.Fatalf("Failed to set environment variable: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.envKey)
				}()
			}

			viper.AutomaticEnv()

			if tt.envKey != tt.viperKey {
				_ = viper.BindEnv(tt.viperKey, tt.envKey)
			}

			viper.SetDefault(tt.viperKey, tt.defaultValue)

			result := viper.GetString(tt.viperKey)

			if result != tt.expected {
				t.Errorf("viper.GetString(%q) = %q, want %q (env %s=%q)",
					tt.viperKey, result, tt.expected, tt.envKey, tt.envValue)
			}
		})
	}
}

// TestConfigurationLoads verifies that environment variables end up on
// the unmarshalled Config struct.
func TestConfigurationLoads(t *testing.T) {
	testEnvVars := map[string]string{
		"COSTOPT_DB_HOST":         "test-postgres",
		"COSTOPT_DB_PORT":         "5432",
		"KAFKA_BOOTSTRAP_SERVERS": "test-kafka:9092",
		"LOOKBACK_HOURS":          "48",
	}

	for key, value := range testEnvVars {
		_ = os.Setenv(key, value)
		defer func(k string) {
			_ = os.Unsetenv(k)
		}(key)
	}

	// Reset viper and reinitialize configuration
	viper.Reset()
	cfg = nil

	config := GetConfig()

	if config == nil {
		t.Fatal("GetConfig() returned nil")
		return
	}

	if config.DBHost != "test-postgres" {
		t.Errorf("DBHost = %q, want %q", config.DBHost, "test-postgres")
	}

	if config.DBPort != "5432" {
		t.Errorf("DBPort = %q, want %q", config.DBPort, "5432")
	}

	if config.KafkaBootstrapServers != "test-kafka:9092" {
		t.Errorf("KafkaBootstrapServers = %q, want %q", config.KafkaBootstrapServers, "test-kafka:9092")
	}

	if config.LookbackHours != 48 {
		t.Errorf("LookbackHours = %d, want %d", config.LookbackHours, 48)
	}

	if config.MinSamples != 12 {
		t.Errorf("MinSamples = %d, want %d", config.MinSamples, 12)
	}
}
