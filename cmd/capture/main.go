package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/motion_session/internal/app"
	"github.com/relabs-tech/motion_session/internal/config"
)

func main() {
	configPath := flag.String("config", "motion_session.conf", "path to config file")
	outPath := flag.String("out", "capture.halg", "output log file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("capture: config error: %v", err)
	}

	if err := app.RunCapture(*outPath); err != nil {
		log.Fatalf("capture failed: %v", err)
	}
}
