package models

import "fmt"

// Subdomain is one discovered subdomain row owned by a SUBDOMAIN job.
// Probe columns record the HTTP/HTTPS liveness check against the name and,
// when the name resolved, against the resolved IP.
type Subdomain struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TaskID      string `gorm:"index;type:varchar(36)" json:"task_id"`
	Subdomain   string `json:"subdomain"`
	Domain      string `json:"domain"`
	Source      string `json:"source"`
	IPAddress   string `json:"ip_address"`
	HTTPStatus  int    `json:"http_status"`
	HTTPTitle   string `json:"http_title"`
	HTTPSStatus int    `gorm:"column:https_status" json:"https_status"`
	HTTPSTitle  string `json:"https_title"`
	IPHTTPCode  int    `json:"ip_http_status"`
	IPHTTPSCode int    `json:"ip_https_status"`
	FromAsset   string `gorm:"type:varchar(200)" json:"from_asset"`
}

// AssetKey is the canonical provenance key of a subdomain asset: the
// resolved IP, since follow-on port scans run against the IP.
func (s Subdomain) AssetKey() string { return s.IPAddress }

// DisplayName is the label shown for this asset in the lineage tree.
func (s Subdomain) DisplayName() string {
	return fmt.Sprintf("subdomain:%s/ip:%s", s.Subdomain, s.IPAddress)
}

// Port is one open port row owned by a PORT job.
type Port struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TaskID      string `gorm:"index;type:varchar(36)" json:"task_id"`
	IPAddress   string `json:"ip_address"`
	PortNumber  int    `json:"port_number"`
	ServiceName string `json:"service_name"`
	Protocol    string `json:"protocol"`
	State       string `json:"state"`
	HTTPStatus  int    `json:"http_status"`
	HTTPTitle   string `json:"http_title"`
	HTTPSStatus int    `gorm:"column:https_status" json:"https_status"`
	HTTPSTitle  string `json:"https_title"`
	FromAsset   string `gorm:"type:varchar(200)" json:"from_asset"`
}

// AssetKey is the canonical provenance key of a port asset: ip:port.
func (p Port) AssetKey() string {
	return fmt.Sprintf("%s:%d", p.IPAddress, p.PortNumber)
}

func (p Port) DisplayName() string {
	return fmt.Sprintf("%s:%d/%s", p.IPAddress, p.PortNumber, p.Protocol)
}

// SpeaksHTTP reports whether the liveness probe saw an HTTP response on
// this port.
func (p Port) SpeaksHTTP() bool { return p.HTTPStatus > 0 }

// SpeaksHTTPS reports whether the liveness probe saw an HTTPS response on
// this port.
func (p Port) SpeaksHTTPS() bool { return p.HTTPSStatus > 0 }

// PathResult is one discovered URL path row owned by a PATH job.
type PathResult struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TaskID      string `gorm:"index;type:varchar(36)" json:"task_id"`
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Status      int    `json:"status"`
	Length      int    `json:"length"`
	FromAsset   string `gorm:"type:varchar(200)" json:"from_asset"`
}

// AssetKey is the canonical provenance key of a path asset: the full URL.
func (p PathResult) AssetKey() string { return p.URL }

func (p PathResult) DisplayName() string {
	return fmt.Sprintf("path:%s", p.Path)
}
