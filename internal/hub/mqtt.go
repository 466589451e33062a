package hub

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConn is the slice of the MQTT client the bridge needs. Tests swap
// in a fake; production wraps paho.
type MQTTConn interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Disconnect(quiesce uint)
}

type pahoConn struct {
	client mqtt.Client
}

// ConnectMQTT connects to the broker with a retained offline will on
// willTopic, so the host marks entities unavailable if the daemon dies.
func ConnectMQTT(config MQTTConfig, willTopic string) (MQTTConn, error) {
	options := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetOrderMatters(false)

	if config.Username != "" {
		options.SetUsername(config.Username)
		options.SetPassword(config.Password)
	}
	if willTopic != "" {
		options.SetWill(willTopic, payloadOffline, 1, true)
	}

	client := mqtt.NewClient(options)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", config.Broker, err)
	}

	return &pahoConn{client: client}, nil
}

func (p *pahoConn) Publish(topic string, payload []byte, qos byte, retained bool) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (p *pahoConn) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	token := p.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (p *pahoConn) Disconnect(quiesce uint) {
	p.client.Disconnect(quiesce)
}
