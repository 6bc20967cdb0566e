package kafka

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/kubecostopt/costopt-backend/internal/config"
	"github.com/kubecostopt/costopt-backend/internal/logging"
)

func consumerConfigMap(cfg *config.Config) kafka.ConfigMap {
	if cfg.KafkaSASLMechanism != "" {
		return kafka.ConfigMap{
			"bootstrap.servers":        cfg.KafkaBootstrapServers,
			"group.id":                 cfg.KafkaConsumerGroupId,
			"security.protocol":        cfg.KafkaSecurityProtocol,
			"sasl.mechanism":           cfg.KafkaSASLMechanism,
			"ssl.ca.location":          cfg.KafkaCA,
			"sasl.username":            cfg.KafkaUsername,
			"sasl.password":            cfg.KafkaPassword,
			"enable.auto.commit":       cfg.KafkaAutoCommit,
			"go.logs.channel.enable":   true,
			"allow.auto.create.topics": true,
		}
	}
	return kafka.ConfigMap{
		"bootstrap.servers":        cfg.KafkaBootstrapServers,
		"group.id":                 cfg.KafkaConsumerGroupId,
		"enable.auto.commit":       cfg.KafkaAutoCommit,
		"go.logs.channel.enable":   true,
		"allow.auto.create.topics": true,
	}
}

// StartConsumer subscribes to the topic and feeds every message to the
// handler until SIGINT/SIGTERM.
func StartConsumer(kafkaTopic string, handler func(msg *kafka.Message)) {
	log := logging.GetLogger()
	cfg := config.GetConfig()
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	configMap := consumerConfigMap(cfg)
	consumer, err := kafka.NewConsumer(&configMap)
	if err != nil {
		log.Errorf("Failed to create consumer: %s", err)
		os.Exit(1)
	}

	err = consumer.Subscribe(kafkaTopic, nil)
	if err != nil {
		log.Errorf("Failed to create subscribe: %s", err)
	}

	run := true
	for run {
		select {
		case sig := <-sigchan:
			log.Infof("Caught Signal %v: terminating", sig)
			run = false
		default:
			msg, err := consumer.ReadMessage(time.Second)
			if err == nil {
				handler(msg)
			} else if !err.(kafka.Error).IsTimeout() {
				// The client will automatically try to recover from all errors.
				// Timeout is not considered an error because it is raised by
				// ReadMessage in absence of messages.
				log.Errorf("Consumer error: %v (%v)", err, msg)
			}
		}
	}
	_ = consumer.Close()
}
