package model

// ResponseStatus 单次能力接口调用的分类结果
type ResponseStatus int

const (
	StatusData ResponseStatus = iota
	StatusEmpty
	StatusNotFound
	StatusFailed
)

func (s ResponseStatus) String() string {
	switch s {
	case StatusData:
		return "data"
	case StatusEmpty:
		return "empty"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CapabilityResponse 单个设备单个能力接口的调用结果（仅在拉取与落库之间存在于内存中）
type CapabilityResponse struct {
	Capability Capability
	Status     ResponseStatus
	StatusCode int
	// Objects 仅在 StatusData 时有值；单个 JSON 对象也包装为长度 1 的切片
	Objects    []map[string]interface{}
	Err        error // StatusFailed 时为 *TransportError
}
