package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/motion_session/internal/app"
	"github.com/relabs-tech/motion_session/internal/calib"
	"github.com/relabs-tech/motion_session/internal/config"
	"github.com/relabs-tech/motion_session/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "motion_session.conf", "path to config file")
	calibPath := flag.String("calib", "", "YAML calibration registry file")
	logPath := flag.String("log", "", "log file to replay")
	flag.Parse()

	if *logPath == "" {
		log.Fatal("replay: -log is required")
	}
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("replay: config error: %v", err)
	}

	var registry *calib.Registry
	if *calibPath != "" {
		var err error
		registry, err = calib.LoadRegistry(*calibPath)
		if err != nil {
			log.Fatalf("replay: %v", err)
		}
	}

	raw, err := os.ReadFile(*logPath)
	if err != nil {
		log.Fatalf("replay: read log: %v", err)
	}

	ds, err := pipeline.Assembler{Registry: registry}.Load(raw)
	if err != nil {
		log.Fatalf("replay: decode log: %v", err)
	}

	if err := app.RunReplay(ds); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
}
