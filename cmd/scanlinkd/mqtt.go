package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"

	"calmh.dev/hassmqtt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mqttPublisher exposes the scalar deflection reading as a Home Assistant
// discoverable sensor. It implements suture.Service so the supervisor
// tears the connection down on shutdown.
type mqttPublisher struct {
	client mqtt.Client
	metric *hassmqtt.Metric
}

func newMQTTPublisher(cli *CLI, instance string) (*mqttPublisher, error) {
	if cli.MQTTClientID == "" {
		hn, _ := os.Hostname()
		home, _ := os.UserHomeDir()
		hf := sha256.New()
		fmt.Fprintf(hf, "%s\n%s\n", hn, home)
		cli.MQTTClientID = fmt.Sprintf("s%x", hf.Sum(nil))[:12]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cli.MQTTBroker)
	opts.SetClientID(cli.MQTTClientID)
	if cli.MQTTUsername != "" && cli.MQTTPassword != "" {
		opts.SetUsername(cli.MQTTUsername)
		opts.SetPassword(cli.MQTTPassword)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	metric := &hassmqtt.Metric{
		Device: &hassmqtt.Device{
			Namespace: "afm",
			ClientID:  cli.MQTTClientID,
			ID:        instance,
			Name:      instance,
		},
		ID:         "deflection",
		DeviceType: "sensor",
		Unit:       "counts",
		Name:       "Deflection",
	}
	return &mqttPublisher{client: client, metric: metric}, nil
}

func (p *mqttPublisher) Serve(ctx context.Context) error {
	<-ctx.Done()
	p.client.Disconnect(250)
	return ctx.Err()
}

func (p *mqttPublisher) Publish(value int) {
	if err := p.metric.Publish(p.client, float64(value)); err != nil {
		slog.Warn("mqtt publish", "err", err)
	}
}
