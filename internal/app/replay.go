// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_session/internal/config"
	"github.com/relabs-tech/motion_session/internal/session"
)

// ReplaySample is the JSON payload published for one decoded sample.
type ReplaySample struct {
	UnitID string             `json:"unit_id"`
	Time   float64            `json:"time_s"`
	Values map[string]float64 `json:"values"`
}

// RunReplay publishes a decoded dataset over MQTT at the recorded sample
// rate, one JSON message per sample on <topic prefix>/<unit id>. Useful
// for feeding live-data consumers from an archived recording.
func RunReplay(ds *session.Dataset) error {
	log.Printf("replay: starting for unit %s (%d samples @ %g Hz)", ds.UnitID, ds.Len(), ds.Header.SampleRateHz)

	cfg := config.Get()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDReplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("replay: MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	topic := cfg.TopicSamples + "/" + ds.UnitID
	log.Printf("replay: connected to MQTT, publishing on %s", topic)

	interval := time.Duration(float64(time.Second) / ds.Header.SampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for range ticker.C {
		if i >= ds.Len() {
			break
		}

		sample := ReplaySample{
			UnitID: ds.UnitID,
			Time:   ds.Timestamps[i],
			Values: make(map[string]float64, len(ds.Header.EnabledChannels)),
		}
		for _, name := range ds.Header.EnabledChannels {
			sample.Values[name] = ds.Channels[name][i]
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("replay: json marshal error: %v", err)
			continue
		}

		token := client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("replay: publish error: %v", token.Error())
		}
		i++
	}

	log.Printf("replay: finished, published %d samples", i)
	return nil
}
