package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/relabs-tech/motion_session/internal/calib"
	"github.com/relabs-tech/motion_session/internal/export"
	"github.com/relabs-tech/motion_session/internal/markers"
	"github.com/relabs-tech/motion_session/internal/pipeline"
	"github.com/relabs-tech/motion_session/internal/session"
)

// DecodeOptions configure a decode run.
type DecodeOptions struct {
	LogPaths    []string
	CalibPath   string            // optional YAML calibration registry
	MarkerFiles map[string]string // unit id -> dock sync log path
	Sync        bool              // synchronize all logs onto a common axis
	MasterUnit  string
	Strict      bool
	UseFactory  bool
	CSVDir      string // write one CSV per dataset when set
	PlotDir     string // write one channel plot per dataset when set
}

// RunDecode decodes one or more log files, optionally synchronizes them,
// and writes the requested export artifacts.
func RunDecode(opts DecodeOptions) error {
	if len(opts.LogPaths) == 0 {
		return fmt.Errorf("no log files given")
	}

	var registry *calib.Registry
	if opts.CalibPath != "" {
		var err error
		registry, err = calib.LoadRegistry(opts.CalibPath)
		if err != nil {
			return err
		}
		log.Printf("decode: loaded %d calibration sets from %s", registry.Len(), opts.CalibPath)
	}

	raws := make([][]byte, len(opts.LogPaths))
	for i, path := range opts.LogPaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read log %s: %w", path, err)
		}
		raws[i] = raw
	}

	assembler := pipeline.Assembler{
		Registry:   registry,
		Strict:     opts.Strict,
		UseFactory: opts.UseFactory,
	}

	var datasets []*session.Dataset
	if opts.Sync {
		syncOpts := session.SyncOptions{MasterUnitID: opts.MasterUnit}
		if len(opts.MarkerFiles) > 0 {
			syncOpts.Markers = make(map[string][]session.Marker, len(opts.MarkerFiles))
			for unit, path := range opts.MarkerFiles {
				m, err := markers.LoadSyncLog(path)
				if err != nil {
					return err
				}
				syncOpts.Markers[unit] = m
				log.Printf("decode: unit %s: %d sync markers from %s", unit, len(m), path)
			}
		}

		synced, err := assembler.LoadAndSynchronize(raws, syncOpts)
		if err != nil {
			return err
		}
		datasets = synced.Datasets

		log.Printf("decode: synchronized %d units on reference %s, %d samples each",
			len(synced.Datasets), synced.ReferenceUnit, len(synced.Timestamps))
		for _, d := range synced.Datasets {
			a := synced.Alignments[d.UnitID]
			log.Printf("decode: unit %s: offset %+.6fs (%+.2f samples), drift factor %.9f, %d markers",
				a.UnitID, a.OffsetSeconds, a.OffsetSamples, a.DriftFactor, a.MarkersUsed)
		}
		for _, w := range synced.Warnings {
			log.Printf("decode: WARNING: %s", w)
		}
	} else {
		var err error
		datasets, err = assembler.LoadAll(raws)
		if err != nil {
			return err
		}
	}

	for _, ds := range datasets {
		log.Printf("decode: unit %s: %d samples @ %g Hz, channels %s, fw %s",
			ds.UnitID, ds.Len(), ds.Header.SampleRateHz,
			strings.Join(ds.Header.EnabledChannels, ","), ds.Header.Firmware)
		for _, w := range ds.Warnings {
			log.Printf("decode: WARNING: unit %s: %s", ds.UnitID, w)
		}

		if opts.CSVDir != "" {
			path := filepath.Join(opts.CSVDir, ds.UnitID+".csv")
			if err := export.WriteCSVFile(path, ds); err != nil {
				return err
			}
			log.Printf("decode: wrote %s", path)
		}
		if opts.PlotDir != "" {
			path := filepath.Join(opts.PlotDir, ds.UnitID+".png")
			if err := export.PlotChannels(path, ds); err != nil {
				return err
			}
			log.Printf("decode: wrote %s", path)
		}
	}
	return nil
}
