// Package markers ingests dock synchronization logs. While units record,
// the charging dock fires a shared pulse and logs one line per pulse:
// the device tick echoed by the unit paired with the NMEA RMC sentence
// the dock's GPS produced at that instant. Those pairs feed the drift
// correction of multi-unit synchronization.
package markers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/motion_session/internal/session"
)

// ParseSyncLog reads lines of the form "<device_seconds>,<RMC sentence>"
// and produces drift markers sorted by device time. Blank lines,
// comments, non-RMC sentences, and unparsable lines are skipped; the
// dock log is noisy by nature.
func ParseSyncLog(r io.Reader) ([]session.Marker, error) {
	var out []session.Marker
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		deviceTime, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			continue
		}

		sentence := strings.TrimSpace(parts[1])
		if !strings.HasPrefix(sentence, "$") {
			continue
		}
		parsed, err := nmea.Parse(sentence)
		if err != nil {
			continue
		}
		rmc, ok := parsed.(nmea.RMC)
		if !ok || rmc.Validity != nmea.ValidRMC {
			continue
		}
		if !rmc.Date.Valid || !rmc.Time.Valid {
			continue
		}

		out = append(out, session.Marker{
			DeviceTime: deviceTime,
			SharedTime: rmcEpochSeconds(rmc),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sync log: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DeviceTime < out[j].DeviceTime })
	return out, nil
}

// LoadSyncLog reads a dock sync log from disk.
func LoadSyncLog(path string) ([]session.Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sync log: %w", err)
	}
	defer f.Close()
	return ParseSyncLog(f)
}

// rmcEpochSeconds converts the RMC date and time-of-day into seconds on
// the shared GPS clock. RMC years are two digits; the fleet postdates
// 2000.
func rmcEpochSeconds(rmc nmea.RMC) float64 {
	t := time.Date(
		2000+rmc.Date.YY, time.Month(rmc.Date.MM), rmc.Date.DD,
		rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second,
		rmc.Time.Millisecond*int(time.Millisecond),
		time.UTC,
	)
	return float64(t.UnixNano()) / 1e9
}
