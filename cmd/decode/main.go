package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/relabs-tech/motion_session/internal/app"
)

func main() {
	calibPath := flag.String("calib", "", "YAML calibration registry file")
	markerSpec := flag.String("markers", "", "dock sync logs as unit=path[,unit=path...]")
	sync := flag.Bool("sync", false, "synchronize all logs onto a common time axis")
	master := flag.String("master", "", "reference unit id (default: earliest start)")
	strict := flag.Bool("strict", false, "fail on truncated logs instead of degrading")
	factory := flag.Bool("factory", false, "apply factory range scaling when no calibration matches")
	csvDir := flag.String("csv", "", "directory for per-unit CSV output")
	plotDir := flag.String("plot", "", "directory for per-unit channel plots")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: decode [flags] <log file>...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	markerFiles := make(map[string]string)
	if *markerSpec != "" {
		for _, pair := range strings.Split(*markerSpec, ",") {
			unit, path, ok := strings.Cut(pair, "=")
			if !ok {
				log.Fatalf("invalid -markers entry %q, want unit=path", pair)
			}
			markerFiles[unit] = path
		}
	}

	err := app.RunDecode(app.DecodeOptions{
		LogPaths:    flag.Args(),
		CalibPath:   *calibPath,
		MarkerFiles: markerFiles,
		Sync:        *sync,
		MasterUnit:  *master,
		Strict:      *strict,
		UseFactory:  *factory,
		CSVDir:      *csvDir,
		PlotDir:     *plotDir,
	})
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}
}
