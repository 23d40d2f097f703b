//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/flood-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-engine/internal/config"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
)

const testAssessmentTopic = "test-flood-risk-assessments"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka boots a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// publishedAssessment holds a deserialized message read from the assessment topic.
type publishedAssessment struct {
	Assessment domain.AreaAssessment
	Key        string
	Headers    map[string]string
}

func readAssessment(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedAssessment {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from assessment topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var assessment domain.AreaAssessment
	require.NoError(t, json.Unmarshal(msg.Value, &assessment), "unmarshal assessment message")

	return publishedAssessment{
		Assessment: assessment,
		Key:        string(msg.Key),
		Headers:    headers,
	}
}

func sampleAssessment(generatedAt time.Time) domain.AreaAssessment {
	return domain.AreaAssessment{
		Rivers: []domain.RiverPrediction{
			{
				SiteID:           "07332500",
				SiteName:         "Blue River near Blue, OK",
				CurrentStage:     12.4,
				FloodStage:       "Minor Flood",
				FloodProbability: 78,
				RiskLevel:        domain.RiskHigh,
				TimeToFlood:      "Minor flooding now",
			},
			{
				SiteID:           "07331600",
				SiteName:         "Red River at Denison Dam",
				CurrentStage:     4.1,
				FloodStage:       "Normal",
				FloodProbability: 22,
				RiskLevel:        domain.RiskLow,
				TimeToFlood:      "No immediate threat",
			},
		},
		AreaPrecip:  68.0,
		OverallRisk: domain.RiskHigh,
		GeneratedAt: generatedAt,
	}
}

// TestPublisherRoundTrip verifies the adapter layer: kafka.Publisher writes an
// assessment that a plain consumer can read back with intact headers and payload.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAssessmentTopic)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testAssessmentTopic,
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	generatedAt := time.Date(2024, time.April, 26, 15, 30, 0, 0, time.UTC)
	require.NoError(t, publisher.Publish(ctx, sampleAssessment(generatedAt)))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAssessmentTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	pa := readAssessment(ctx, t, consumer)

	assert.Equal(t, "07332500", pa.Key, "keyed by the first assessed site")
	assert.Equal(t, "High", pa.Headers["overall_risk"])
	assert.Equal(t, generatedAt.Format(time.RFC3339), pa.Headers["generated_at"])

	assert.Equal(t, domain.RiskHigh, pa.Assessment.OverallRisk)
	assert.InDelta(t, 68.0, pa.Assessment.AreaPrecip, 1e-9)
	require.Len(t, pa.Assessment.Rivers, 2)
	assert.Equal(t, "Blue River near Blue, OK", pa.Assessment.Rivers[0].SiteName)
	assert.Equal(t, "Minor flooding now", pa.Assessment.Rivers[0].TimeToFlood)
	assert.Equal(t, domain.RiskLow, pa.Assessment.Rivers[1].RiskLevel)
	assert.True(t, pa.Assessment.GeneratedAt.Equal(generatedAt))
}

// TestPublisherSequentialAssessments verifies that assessments for the same
// area land on the same partition in publish order.
func TestPublisherSequentialAssessments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAssessmentTopic)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testAssessmentTopic,
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	base := time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		assessment := sampleAssessment(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, publisher.Publish(ctx, assessment))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAssessmentTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var stamps []string
	for i := 0; i < 3; i++ {
		pa := readAssessment(ctx, t, consumer)
		assert.Equal(t, "07332500", pa.Key)
		stamps = append(stamps, pa.Headers["generated_at"])
	}

	want := []string{
		base.Format(time.RFC3339),
		base.Add(time.Hour).Format(time.RFC3339),
		base.Add(2 * time.Hour).Format(time.RFC3339),
	}
	assert.Equal(t, want, stamps, "same-key assessments arrive in publish order")
}
