// Package export converts decoded datasets into analysis-friendly
// artifacts. It consumes the dataset contract only; nothing here feeds
// back into decoding or synchronization.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/relabs-tech/motion_session/internal/session"
)

// WriteCSV streams a dataset as CSV: a timestamp column followed by one
// column per channel in the header's declared order.
func WriteCSV(w io.Writer, ds *session.Dataset) error {
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp_s"}, ds.Header.EnabledChannels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv write header: %w", err)
	}

	row := make([]string, len(header))
	for i := 0; i < ds.Len(); i++ {
		row[0] = strconv.FormatFloat(ds.Timestamps[i], 'f', 6, 64)
		for j, name := range ds.Header.EnabledChannels {
			row[j+1] = strconv.FormatFloat(ds.Channels[name][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes a dataset to a CSV file on disk.
func WriteCSVFile(path string, ds *session.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv create %s: %w", path, err)
	}
	if err := WriteCSV(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
