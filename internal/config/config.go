package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	//Application config
	LogLevel string `mapstructure:"LogLevel"`

	//Kafka configs
	KafkaBootstrapServers string `mapstructure:"KAFKA_BOOTSTRAP_SERVERS"`
	KafkaConsumerGroupId  string `mapstructure:"KAFKA_CONSUMER_GROUP_ID"`
	KafkaAutoCommit       bool   `mapstructure:"KAFKA_AUTO_COMMIT"`
	SamplesTopic          string `mapstructure:"SAMPLES_TOPIC"`
	CostsTopic            string `mapstructure:"COSTS_TOPIC"`
	AlertsTopic           string `mapstructure:"ALERTS_TOPIC"`
	KafkaUsername         string
	KafkaPassword         string
	KafkaSASLMechanism    string
	KafkaSecurityProtocol string
	KafkaCA               string

	// Analysis config
	LookbackHours            int     `mapstructure:"LOOKBACK_HOURS"`
	MinSamples               int     `mapstructure:"MIN_SAMPLES"`
	ClusterUtilizationFloor  float64 `mapstructure:"CLUSTER_UTILIZATION_FLOOR"`
	AnomalyWindowDays        int     `mapstructure:"ANOMALY_WINDOW_DAYS"`
	AnomalyDeviationMultiple float64 `mapstructure:"ANOMALY_DEVIATION_MULTIPLE"`
	AnomalyMinDeviation      float64 `mapstructure:"ANOMALY_MIN_DEVIATION"`
	DetectionIntervalMin     int     `mapstructure:"DETECTION_INTERVAL_MIN"`

	// Database config
	DBName     string `mapstructure:"COSTOPT_DB_NAME"`
	DBUser     string `mapstructure:"COSTOPT_DB_USER"`
	DBPassword string `mapstructure:"COSTOPT_DB_PASSWORD"`
	DBHost     string `mapstructure:"COSTOPT_DB_HOST"`
	DBPort     string `mapstructure:"COSTOPT_DB_PORT"`
	DBssl      string `mapstructure:"COSTOPT_DB_SSL"`

	API_PORT          string `mapstructure:"API_PORT"`
	ReadHeaderTimeout int    `mapstructure:"READ_HEADER_TIMEOUT"`
}

var cfg *Config = nil

func initConfig() {
	viper.AutomaticEnv()

	viper.SetDefault("KAFKA_BOOTSTRAP_SERVERS", "localhost:29092")
	viper.SetDefault("SAMPLES_TOPIC", "costopt.telemetry.samples")
	viper.SetDefault("COSTS_TOPIC", "costopt.telemetry.costs")
	viper.SetDefault("ALERTS_TOPIC", "costopt.alerts.events")
	viper.SetDefault("KAFKA_CONSUMER_GROUP_ID", "costopt")
	viper.SetDefault("KAFKA_AUTO_COMMIT", false)

	// default DB Config
	viper.SetDefault("COSTOPT_DB_NAME", "postgres")
	viper.SetDefault("COSTOPT_DB_USER", "postgres")
	viper.SetDefault("COSTOPT_DB_PASSWORD", "postgres")
	viper.SetDefault("COSTOPT_DB_HOST", "localhost")
	viper.SetDefault("COSTOPT_DB_PORT", "15432")
	viper.SetDefault("COSTOPT_DB_SSL", "disable")

	// Analysis defaults
	viper.SetDefault("LOOKBACK_HOURS", 24)
	viper.SetDefault("MIN_SAMPLES", 12)
	viper.SetDefault("CLUSTER_UTILIZATION_FLOOR", 0.20)
	viper.SetDefault("ANOMALY_WINDOW_DAYS", 30)
	viper.SetDefault("ANOMALY_DEVIATION_MULTIPLE", 3.0)
	viper.SetDefault("ANOMALY_MIN_DEVIATION", 5.0)
	viper.SetDefault("DETECTION_INTERVAL_MIN", 15)

	viper.SetDefault("API_PORT", "8000")
	viper.SetDefault("READ_HEADER_TIMEOUT", 5)
	viper.SetDefault("LogLevel", "INFO")

	// Hack till viper issue get fix - https://github.com/spf13/viper/issues/761
	envKeysMap := &map[string]interface{}{}
	if err := mapstructure.Decode(cfg, &envKeysMap); err != nil {
		fmt.Println(err)
	}
	for k := range *envKeysMap {
		if bindErr := viper.BindEnv(k); bindErr != nil {
			fmt.Println(bindErr)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Println("Can not unmarshal config. Exiting.. ", err)
		os.Exit(1)
	}
}

func GetConfig() *Config {
	if cfg == nil {
		initConfig()
	}
	return cfg
}
