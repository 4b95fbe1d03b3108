package app

import (
	"fmt"
	"io"
	"log"
	"os"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_session/internal/config"
	"github.com/relabs-tech/motion_session/internal/halog"
)

// RunCapture reads one raw log container from a docked unit over the
// configured serial port and writes it to outPath. The header is read
// first to learn how many sample bytes follow; a device that stops
// sending mid-dump leaves a truncated but still decodable file.
func RunCapture(outPath string) error {
	cfg := config.Get()
	if cfg.CaptureSerialPort == "" {
		return fmt.Errorf("CAPTURE_SERIAL_PORT is required")
	}

	serialOpts := serial.OpenOptions{
		PortName:        cfg.CaptureSerialPort,
		BaudRate:        uint(cfg.CaptureBaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("capture: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	head := make([]byte, halog.HeaderSize)
	if _, err := io.ReadFull(port, head); err != nil {
		return fmt.Errorf("read header from device: %w", err)
	}

	header, err := halog.DecodeHeader(head)
	if err != nil {
		return err
	}
	layout, _ := halog.LayoutFor(header.FormatVersion)
	expected := header.SampleCount * layout.RecordSize(len(header.EnabledChannels))
	log.Printf("capture: unit %s, format v%d, %d samples @ %g Hz (%d sample bytes)",
		header.UnitID, header.FormatVersion, header.SampleCount, header.SampleRateHz, expected)

	body := make([]byte, expected)
	n, err := io.ReadFull(port, body)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read sample stream: %w", err)
	}
	if n < expected {
		log.Printf("capture: WARNING: device sent %d of %d sample bytes, log will be truncated", n, expected)
	}

	out := append(head, body[:n]...)
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fmt.Errorf("write log file %s: %w", outPath, err)
	}
	log.Printf("capture: wrote %d bytes to %s", len(out), outPath)
	return nil
}
