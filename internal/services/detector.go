package services

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kubecostopt/costopt-backend/internal/alerts"
	"github.com/kubecostopt/costopt-backend/internal/analyzer"
	"github.com/kubecostopt/costopt-backend/internal/anomaly"
	"github.com/kubecostopt/costopt-backend/internal/config"
	"github.com/kubecostopt/costopt-backend/internal/kafka"
	"github.com/kubecostopt/costopt-backend/internal/logging"
	"github.com/kubecostopt/costopt-backend/internal/telemetry"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

// KafkaAlertPublisher fans newly raised alerts out to the alerts topic.
type KafkaAlertPublisher struct {
	topic string
}

func NewKafkaAlertPublisher(topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(event types.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := kafka.SendMessage(payload, p.topic, event.ClusterUUID); err != nil {
		return err
	}
	alertsRaisedTotal.Inc()
	return nil
}

// NewDefaultAlertManager wires the alert lifecycle manager against the
// database and the Kafka alerts topic.
func NewDefaultAlertManager() *alerts.Manager {
	cfg := config.GetConfig()
	return alerts.NewManager(alerts.NewGormStore(), NewKafkaAlertPublisher(cfg.AlertsTopic))
}

func newDetectorFromConfig(store *telemetry.GormStore) *anomaly.Detector {
	cfg := config.GetConfig()
	utilAnalyzer := analyzer.New(store, cfg.MinSamples)
	return anomaly.NewDetector(store, utilAnalyzer, NewDefaultAlertManager(), store, anomaly.Config{
		WindowDays:        cfg.AnomalyWindowDays,
		DeviationMultiple: cfg.AnomalyDeviationMultiple,
		MinDeviation:      cfg.AnomalyMinDeviation,
		LookbackHours:     cfg.LookbackHours,
		UtilizationFloor:  cfg.ClusterUtilizationFloor,
	})
}

// StartDetector runs periodic anomaly sweeps until SIGINT/SIGTERM. The
// first sweep happens immediately, then on every tick.
func StartDetector() {
	log := logging.GetLogger()
	cfg := config.GetConfig()
	detector := newDetectorFromConfig(telemetry.NewGormStore())

	interval := time.Duration(cfg.DetectionIntervalMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("starting anomaly detector, sweeping every %s", interval)
	runSweep(detector)

	for {
		select {
		case sig := <-sigchan:
			log.Infof("Caught Signal %v: terminating", sig)
			return
		case <-ticker.C:
			runSweep(detector)
		}
	}
}

func runSweep(detector *anomaly.Detector) {
	log := logging.GetLogger()
	if err := detector.Run(context.Background(), time.Now().UTC()); err != nil {
		log.Errorf("anomaly detector sweep failed: %v", err)
		detectorErrorsTotal.Inc()
		return
	}
	detectorRunsTotal.Inc()
}
