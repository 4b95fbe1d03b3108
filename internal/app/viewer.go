// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motion_session/internal/config"
	"github.com/relabs-tech/motion_session/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// sessionInfo is the JSON metadata served for the loaded dataset.
type sessionInfo struct {
	UnitID       string   `json:"unit_id"`
	SampleRateHz float64  `json:"sample_rate_hz"`
	SampleCount  int      `json:"sample_count"`
	Channels     []string `json:"channels"`
	Firmware     string   `json:"firmware"`
	StartTime    float64  `json:"start_time_s"`
	DurationS    float64  `json:"duration_s"`
	Short        bool     `json:"short"`
	Uncalibrated bool     `json:"uncalibrated"`
	Warnings     []string `json:"warnings,omitempty"`
}

// RunViewer serves a decoded dataset to a browser: a JSON metadata
// endpoint, a websocket streaming samples at the recorded rate, and
// static files from ./web as the UI.
func RunViewer(ds *session.Dataset) error {
	cfg := config.Get()

	info := sessionInfo{
		UnitID:       ds.UnitID,
		SampleRateHz: ds.Header.SampleRateHz,
		SampleCount:  ds.Len(),
		Channels:     ds.Header.EnabledChannels,
		Firmware:     ds.Header.Firmware,
		StartTime:    ds.Header.StartTime(),
		DurationS:    ds.Duration(),
		Short:        ds.Short,
		Uncalibrated: ds.Uncalibrated,
		Warnings:     ds.Warnings,
	}

	// JSON API endpoint: session metadata
	http.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(info); err != nil {
			log.Printf("viewer: json encode error: %v", err)
		}
	})

	// Websocket: stream samples at the recorded rate
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("viewer: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		streamSamples(conn, ds)
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("viewer: listening on %s (unit %s, %d samples)", addr, ds.UnitID, ds.Len())
	return http.ListenAndServe(addr, nil)
}

func streamSamples(conn *websocket.Conn, ds *session.Dataset) {
	interval := time.Duration(float64(time.Second) / ds.Header.SampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for range ticker.C {
		if i >= ds.Len() {
			return
		}

		sample := ReplaySample{
			UnitID: ds.UnitID,
			Time:   ds.Timestamps[i],
			Values: make(map[string]float64, len(ds.Header.EnabledChannels)),
		}
		for _, name := range ds.Header.EnabledChannels {
			sample.Values[name] = ds.Channels[name][i]
		}

		if err := conn.WriteJSON(sample); err != nil {
			log.Printf("viewer: websocket write error: %v", err)
			return
		}
		i++
	}
}
