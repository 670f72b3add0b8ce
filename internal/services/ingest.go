package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"reconflow/internal/models"
	"reconflow/pkg/logger"
	"reconflow/pkg/parsers"
	"reconflow/pkg/probe"
)

// Prober is the probe surface ingestion depends on; satisfied by
// probe.Prober and by test fakes.
type Prober interface {
	Probe(ctx context.Context, scheme, host string) (int, string)
	ProbeURL(ctx context.Context, rawURL string) (int, string)
}

// Resolver maps a hostname to an IP, empty on failure. Swappable in tests.
type Resolver func(host string) string

// Ingestor converts an external tool's output file into normalized result
// rows, stamping each with the job's upstream-asset provenance and running
// the liveness-probe enrichment.
type Ingestor struct {
	subfinder *parsers.SubfinderParser
	nmap      *parsers.NmapParser
	ffuf      *parsers.FfufParser
	prober    Prober
	resolve   Resolver
	logger    *logger.Logger
}

func NewIngestor(prober Prober, log *logger.Logger) *Ingestor {
	return &Ingestor{
		subfinder: parsers.NewSubfinderParser(),
		nmap:      parsers.NewNmapParser(),
		ffuf:      parsers.NewFfufParser(),
		prober:    prober,
		resolve:   probe.ResolveIP,
		logger:    log,
	}
}

func (in *Ingestor) IngestSubdomains(req ScanRequest, outputFile string) ([]models.Subdomain, error) {
	records, err := in.subfinder.Parse(outputFile)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	rows := make([]models.Subdomain, 0, len(records))
	for _, rec := range records {
		ip := in.resolve(rec.Host)

		httpStatus, httpTitle := in.prober.Probe(ctx, "http", rec.Host)
		httpsStatus, httpsTitle := in.prober.Probe(ctx, "https", rec.Host)

		row := models.Subdomain{
			TaskID:      req.TaskID,
			Subdomain:   rec.Host,
			Domain:      req.Target,
			Source:      rec.Source,
			IPAddress:   ip,
			HTTPStatus:  httpStatus,
			HTTPTitle:   httpTitle,
			HTTPSStatus: httpsStatus,
			HTTPSTitle:  httpsTitle,
			FromAsset:   req.FromAsset,
		}
		if ip != "" {
			row.IPHTTPCode, _ = in.prober.Probe(ctx, "http", ip)
			row.IPHTTPSCode, _ = in.prober.Probe(ctx, "https", ip)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (in *Ingestor) IngestPorts(req ScanRequest, outputFile string) ([]models.Port, error) {
	run, err := in.nmap.Parse(outputFile)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var rows []models.Port
	for _, host := range run.Hosts {
		ip := host.PrimaryAddress()
		if ip == "" {
			ip = req.Target
		}
		for _, port := range host.OpenPorts() {
			number, err := strconv.Atoi(port.PortID)
			if err != nil {
				in.logger.Warn("Skipping port with unparsable id", logger.Fields{"port_id": port.PortID})
				continue
			}

			hostPort := fmt.Sprintf("%s:%d", ip, number)
			httpStatus, httpTitle := in.prober.Probe(ctx, "http", hostPort)
			httpsStatus, httpsTitle := in.prober.Probe(ctx, "https", hostPort)

			rows = append(rows, models.Port{
				TaskID:      req.TaskID,
				IPAddress:   ip,
				PortNumber:  number,
				ServiceName: port.Service.Name,
				Protocol:    port.Protocol,
				State:       port.State.State,
				HTTPStatus:  httpStatus,
				HTTPTitle:   httpTitle,
				HTTPSStatus: httpsStatus,
				HTTPSTitle:  httpsTitle,
				FromAsset:   req.FromAsset,
			})
		}
	}
	return rows, nil
}

func (in *Ingestor) IngestPaths(req ScanRequest, outputFile string) ([]models.PathResult, error) {
	out, err := in.ffuf.Parse(outputFile)
	if err != nil {
		return nil, err
	}

	rows := make([]models.PathResult, 0, len(out.Results))
	for _, result := range out.Results {
		path := result.Input["FUZZ"]
		fullURL := result.URL
		if fullURL == "" {
			fullURL = joinURL(req.Target, path)
		}
		rows = append(rows, models.PathResult{
			TaskID:      req.TaskID,
			URL:         fullURL,
			Path:        path,
			ContentType: result.ContentType,
			Status:      result.Status,
			Length:      result.Length,
			FromAsset:   req.FromAsset,
		})
	}
	return rows, nil
}

func joinURL(base, path string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + path
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path
	return u.String()
}
