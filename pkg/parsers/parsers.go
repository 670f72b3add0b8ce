package parsers

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	recon "reconflow/pkg/errors"
	"reconflow/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Parsing is best-effort per record: a malformed individual record is
// skipped. Only a missing output file or an output that cannot be parsed as
// the expected container format is an error.

type SubfinderParser struct {
	logger *logger.Logger
}

func NewSubfinderParser() *SubfinderParser {
	return &SubfinderParser{logger: logger.NewLogger(logrus.InfoLevel)}
}

// Parse reads subfinder JSON-lines output. Lines that fail to decode or
// carry no host are skipped; a file with content but no usable line at all
// counts as malformed.
func (p *SubfinderParser) Parse(outputFile string) ([]SubfinderRecord, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recon.ErrNoResults, outputFile)
	}

	var records []SubfinderRecord
	lines := splitLines(data)
	for _, line := range lines {
		var rec SubfinderRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			p.logger.Warn("Skipping malformed subfinder line", logger.Fields{"error": err})
			continue
		}
		if rec.Host == "" {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil, fmt.Errorf("%w: subfinder output empty", recon.ErrNoResults)
		}
		return nil, fmt.Errorf("%w: no parsable subfinder record", recon.ErrMalformedOutput)
	}

	p.logger.Info("Parsed subfinder output", logger.Fields{"records": len(records)})
	return records, nil
}

type NmapParser struct {
	logger *logger.Logger
}

func NewNmapParser() *NmapParser {
	return &NmapParser{logger: logger.NewLogger(logrus.InfoLevel)}
}

// Parse reads nmap -oX output. Absent service names and addresses come back
// empty rather than failing.
func (p *NmapParser) Parse(outputFile string) (*NmapRun, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recon.ErrNoResults, outputFile)
	}

	var run NmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w: nmap XML: %v", recon.ErrMalformedOutput, err)
	}

	p.logger.Info("Parsed nmap output", logger.Fields{"hosts": len(run.Hosts)})
	return &run, nil
}

// PrimaryAddress returns the host's first IPv4/IPv6 address, empty when the
// host carries none.
func (h Host) PrimaryAddress() string {
	for _, addr := range h.Addresses {
		if addr.AddrType == "ipv4" || addr.AddrType == "ipv6" {
			return addr.Addr
		}
	}
	if len(h.Addresses) > 0 {
		return h.Addresses[0].Addr
	}
	return ""
}

// OpenPorts filters the host's port list down to open TCP/UDP ports.
func (h Host) OpenPorts() []Port {
	var open []Port
	for _, port := range h.Ports.PortList {
		if port.State.State == "open" {
			open = append(open, port)
		}
	}
	return open
}

type FfufParser struct {
	logger *logger.Logger
}

func NewFfufParser() *FfufParser {
	return &FfufParser{logger: logger.NewLogger(logrus.InfoLevel)}
}

// Parse reads ffuf -of json output.
func (p *FfufParser) Parse(outputFile string) (*FfufOutput, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recon.ErrNoResults, outputFile)
	}

	var out FfufOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: ffuf JSON: %v", recon.ErrMalformedOutput, err)
	}

	p.logger.Info("Parsed ffuf output", logger.Fields{"results": len(out.Results)})
	return &out, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
