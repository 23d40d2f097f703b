// Package kafka publishes completed area assessments to a Kafka topic for
// downstream consumers (alerting, archival).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-risk-engine/internal/config"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
)

// Publisher produces assessment messages to a Kafka topic.
// It implements engine.AssessmentPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured assessment topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one area assessment. The key groups
// assessments for the same area onto the same partition so consumers see
// them in order.
func (p *Publisher) Publish(ctx context.Context, assessment domain.AreaAssessment) error {
	msg, err := serializeToMessage(assessment)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	p.logger.Debug("assessment published",
		"overall_risk", assessment.OverallRisk,
		"rivers", len(assessment.Rivers))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AreaAssessment into a Kafka message.
func serializeToMessage(assessment domain.AreaAssessment) (kafkago.Message, error) {
	data, err := json.Marshal(assessment)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   assessmentKey(assessment),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "overall_risk", Value: []byte(assessment.OverallRisk)},
			{Key: "generated_at", Value: []byte(assessment.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

// assessmentKey derives a stable partition key from the assessed sites.
func assessmentKey(assessment domain.AreaAssessment) []byte {
	if len(assessment.Rivers) == 0 {
		return []byte("area")
	}
	return []byte(assessment.Rivers[0].SiteID)
}
