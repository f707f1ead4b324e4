// mqtt.go - Publishes location update events to an MQTT broker

package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Event is the payload published after a successful ingest.
type Event struct {
	Location string             `json:"location"`
	Readings map[string]float64 `json:"readings"`
	Created  bool               `json:"created"`
	At       time.Time          `json:"at"`
}

// Client publishes events under <prefix>/<location>.
type Client struct {
	client paho.Client
	prefix string
}

// Connect dials the broker and waits for the session to come up.
func Connect(broker, prefix string) (*Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("envsense-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	c := paho.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, errors.New("mqtt connect timed out")
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	return &Client{client: c, prefix: prefix}, nil
}

// Topic returns the topic events for location are published on.
func (c *Client) Topic(location string) string {
	return fmt.Sprintf("%s/%s", c.prefix, location)
}

// Publish sends ev in the background; failures are only logged.
func (c *Client) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("mqtt event marshal failed")
		return
	}
	topic := c.Topic(ev.Location)
	go func() {
		tok := c.client.Publish(topic, 0, false, payload)
		if !tok.WaitTimeout(publishTimeout) {
			log.Warn().Str("topic", topic).Msg("mqtt publish timed out")
			return
		}
		if err := tok.Error(); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("mqtt publish failed")
		}
	}()
}

// Close disconnects, allowing in-flight work 250ms to finish.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
