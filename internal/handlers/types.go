package handlers

type SubdomainScanRequest struct {
	Targets []string `json:"targets" binding:"required,min=1,dive,required"`
	FromID  string   `json:"from_id"`
}

// PortScanRequest's Target may carry several comma-separated hosts; each
// gets its own job.
type PortScanRequest struct {
	Target string `json:"target" binding:"required"`
	Ports  string `json:"ports" binding:"required"`
	FromID string `json:"from_id"`
}

type PathScanRequest struct {
	Wordlist string   `json:"wordlist" binding:"required"`
	URLs     []string `json:"urls" binding:"required,min=1,dive,required"`
	Delay    int      `json:"delay"`
	FromID   string   `json:"from_id"`
}

type ScanResponse struct {
	TaskIDs []string `json:"task_ids"`
}

type TaskStatusRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}

type CreateTargetRequest struct {
	Domain string `json:"domain" binding:"required"`
}

type TreeRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}
