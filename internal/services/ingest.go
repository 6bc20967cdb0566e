package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/kubecostopt/costopt-backend/internal/config"
	costoptkafka "github.com/kubecostopt/costopt-backend/internal/kafka"
	"github.com/kubecostopt/costopt-backend/internal/logging"
	"github.com/kubecostopt/costopt-backend/internal/model"
	"github.com/kubecostopt/costopt-backend/internal/types"
	"github.com/kubecostopt/costopt-backend/internal/utils"
)

// StartIngestor consumes the samples and costs topics until interrupted.
func StartIngestor() {
	cfg := config.GetConfig()
	go costoptkafka.StartConsumer(cfg.CostsTopic, ProcessCostEvent)
	costoptkafka.StartConsumer(cfg.SamplesTopic, ProcessSampleEvent)
}

// ProcessSampleEvent stores one normalized utilization datapoint from the
// samples topic. Malformed or unattributable messages are counted and
// dropped, they never stop the consumer.
func ProcessSampleEvent(msg *kafka.Message) {
	log := logging.GetLogger()
	validate := validator.New()
	var event types.SampleEvent

	if !json.Valid(msg.Value) {
		log.Errorf("Received message on samples topic is not valid JSON: %s", msg.Value)
		invalidTelemetryPoints.Inc()
		return
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Errorf("Unable to decode sample message: %s", msg.Value)
		invalidTelemetryPoints.Inc()
		return
	}
	if err := validate.Struct(event); err != nil {
		log.Errorf("Invalid sample message: %s", err)
		invalidTelemetryPoints.Inc()
		return
	}

	cluster, err := model.GetClusterByUUID(event.ClusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("Sample received for unknown cluster %s", event.ClusterUUID)
		invalidTelemetryPoints.Inc()
		return
	}
	if err != nil {
		log.Errorf("Unable to look up cluster %s: %v", event.ClusterUUID, err)
		return
	}

	var nodeID uint
	for _, node := range cluster.Nodes {
		if node.NodeUUID == event.NodeUUID {
			nodeID = node.ID
			break
		}
	}
	if nodeID == 0 {
		log.Warnf("Sample received for unknown node %s in cluster %s", event.NodeUUID, event.ClusterUUID)
		invalidTelemetryPoints.Inc()
		return
	}

	sample := model.UtilizationSample{
		ClusterID:   cluster.ID,
		NodeID:      nodeID,
		Timestamp:   event.Timestamp.UTC(),
		CPURatio:    utils.Clamp(event.CPURatio, 0, 1),
		MemoryRatio: utils.Clamp(event.MemoryRatio, 0, 1),
	}
	if err := sample.CreateUtilizationSample(); err != nil {
		log.Errorf("Unable to store utilization sample: %v", err)
	}
}

// ProcessCostEvent stores one day of billed cost from the costs topic.
func ProcessCostEvent(msg *kafka.Message) {
	log := logging.GetLogger()
	validate := validator.New()
	var event types.CostEvent

	if !json.Valid(msg.Value) {
		log.Errorf("Received message on costs topic is not valid JSON: %s", msg.Value)
		invalidTelemetryPoints.Inc()
		return
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Errorf("Unable to decode cost message: %s", msg.Value)
		invalidTelemetryPoints.Inc()
		return
	}
	if err := validate.Struct(event); err != nil {
		log.Errorf("Invalid cost message: %s", err)
		invalidTelemetryPoints.Inc()
		return
	}

	cluster, err := model.GetClusterByUUID(event.ClusterUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("Cost entry received for unknown cluster %s", event.ClusterUUID)
		invalidTelemetryPoints.Inc()
		return
	}
	if err != nil {
		log.Errorf("Unable to look up cluster %s: %v", event.ClusterUUID, err)
		return
	}

	entry := model.CostEntry{
		ClusterID: cluster.ID,
		Date:      event.Date.UTC().Truncate(24 * time.Hour),
		Cost:      event.Cost,
	}
	if err := entry.CreateCostEntry(); err != nil {
		log.Errorf("Unable to store cost entry: %v", err)
	}
}
