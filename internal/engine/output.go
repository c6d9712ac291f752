package engine

import (
	"fmt"
	"os"

	"github.com/IBM/sarama"

	"github.com/comedorlabs/suministro/internal/models"
)

// Topics run reports and alert events are published under.
const (
	TopicRequirements = "supply_requirements"
	TopicOrders       = "purchase_orders"
	TopicAlerts       = "stock_alerts"
	TopicPeriods      = "planning_periods"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct{}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	output := fmt.Sprintf("[%s] %s\n", topic, string(msg))
	_, err := os.Stdout.Write([]byte(output))
	if err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	_ = os.Stdout.Sync()
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

type KafkaOutput struct {
	producer sarama.SyncProducer
}

func NewKafkaOutput(brokerList []string) (*KafkaOutput, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return &KafkaOutput{producer: producer}, nil
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return fmt.Errorf("Kafka producer is closed")
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	return err
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}

// DetermineOutputDestination picks the sink run reports go to: Kafka when
// enabled, stdout otherwise.
func DetermineOutputDestination(cfg *models.Config) (OutputDestination, error) {
	if cfg.KafkaEnabled {
		return NewKafkaOutput([]string{cfg.KafkaBrokerList})
	}
	return &ConsoleOutput{}, nil
}
