package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tidelab/surfcast/internal/config"
	"github.com/tidelab/surfcast/internal/domain"
)

// Publisher produces one message per committed snapshot to the sink topic.
// It implements assembler.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// snapshotEvent is the wire form of a committed snapshot. Only the summary
// travels; series data stays in the store.
type snapshotEvent struct {
	SnapshotID int64              `json:"snapshot_id"`
	SpotUID    string             `json:"spot_uid"`
	SpotName   string             `json:"spot_name"`
	Taken      time.Time          `json:"taken"`
	Buoy       domain.BuoySummary `json:"buoy"`
}

// PublishSnapshots serializes and publishes the snapshots in a single
// WriteMessages call.
func (p *Publisher) PublishSnapshots(ctx context.Context, snapshots []domain.SpotSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshots))
	for i := range snapshots {
		msg, err := serializeToMessage(snapshots[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a snapshot summary into a Kafka message keyed
// by spot UID so per-spot ordering survives partitioning.
func serializeToMessage(snapshot domain.SpotSnapshot) (kafkago.Message, error) {
	event := snapshotEvent{
		SnapshotID: snapshot.ID,
		SpotUID:    snapshot.Spot.UID,
		SpotName:   snapshot.Spot.Name,
		Taken:      snapshot.Created,
		Buoy:       snapshot.Buoy.SummaryView(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshot.Spot.UID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(snapshot.Buoy.Station)},
			{Key: "taken", Value: []byte(snapshot.Created.Format(time.RFC3339))},
		},
	}, nil
}
