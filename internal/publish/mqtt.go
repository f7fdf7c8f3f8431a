package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS        = 0
	connectTimeout = 10 * time.Second
	disconnectWait = 250 // ms
)

var ErrTimeout = errors.New("publish: mqtt operation timed out")

type mqttSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to a broker. Records are published on topic/<key>.
func NewMQTT(broker, topic, clientID string) (Sink, error) {
	if broker == "" || topic == "" {
		return nil, errors.New("publish: mqtt needs a broker and a topic")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect %s: %w", broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return &mqttSink{client: c, topic: topic}, nil
}

func (m *mqttSink) Send(ctx context.Context, key string, payload []byte) error {
	token := m.client.Publish(m.topic+"/"+key, mqttQoS, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

func (m *mqttSink) Close() error {
	m.client.Disconnect(disconnectWait)
	return nil
}
