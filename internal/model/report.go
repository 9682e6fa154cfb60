package model

import "time"

// Stage 流水线阶段
type Stage string

const (
	StageStart    Stage = "start"
	StageTruncate Stage = "truncate"
	StageAuth     Stage = "auth"
	StageRegistry Stage = "registry"
	StageFetch    Stage = "fetch"
	StageMerge    Stage = "merge"
	StageDone     Stage = "done"
)

// VendorReport 单个厂商一次运行的统计
type VendorReport struct {
	Vendor            VendorType `json:"vendor"`
	Stage             Stage      `json:"stage"` // 到达的最后阶段
	Devices           int        `json:"devices"`
	DevicesWithData   int        `json:"devices_with_data"`
	DevicesAllFailed  int        `json:"devices_all_failed"`
	PayloadsPersisted int        `json:"payloads_persisted"`
	RowsStaged        int        `json:"rows_staged"`
	NotFound          int        `json:"not_found"`
	Empty             int        `json:"empty"`
	TransportFailures int        `json:"transport_failures"`
	PersistFailures   int        `json:"persist_failures"`
	MergedRows        int        `json:"merged_rows"`
	Error             string     `json:"error,omitempty"`
}

// Failed 该厂商分支是否因阶段失败而中止
func (r *VendorReport) Failed() bool {
	return r.Error != ""
}

// RunReport 一次完整运行的结果
type RunReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Stage      Stage           `json:"stage"`
	Vendors    []*VendorReport `json:"vendors"`
}

// Degraded 有厂商分支失败或有单次调用/写入失败
func (r *RunReport) Degraded() bool {
	for _, v := range r.Vendors {
		if v.Failed() || v.TransportFailures > 0 || v.PersistFailures > 0 {
			return true
		}
	}
	return false
}
