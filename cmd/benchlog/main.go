package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/motion_session/internal/app"
	"github.com/relabs-tech/motion_session/internal/config"
)

func main() {
	configPath := flag.String("config", "motion_session.conf", "path to config file")
	outPath := flag.String("out", "bench.halg", "output log file")
	duration := flag.Duration("duration", 30*time.Second, "recording duration")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("benchlog: config error: %v", err)
	}

	if err := app.RunBenchLog(*outPath, *duration); err != nil {
		log.Fatalf("benchlog failed: %v", err)
	}
}
