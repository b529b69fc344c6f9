package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/trackly/trackly-api/config"
)

// NewAMQPPublisher publishes every topic to one durable topic exchange, using
// the topic as routing key, so consumers bind with patterns like
// "trackly.v1.issue.*".
func NewAMQPPublisher(cfg config.ExportConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	amqpCfg := amqp.NewDurablePubSubConfig(cfg.AMQPURL, amqp.GenerateQueueNameTopicName)
	amqpCfg.Exchange.GenerateName = func(string) string { return cfg.Exchange }
	amqpCfg.Exchange.Type = "topic"
	amqpCfg.Publish.GenerateRoutingKey = func(topic string) string { return topic }

	pub, err := amqp.NewPublisher(amqpCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return pub, nil
}
