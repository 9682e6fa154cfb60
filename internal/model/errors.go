package model

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a pipeline run is requested while another is still running.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// AuthError 登录或刷新令牌失败，终止该厂商本次拉取
type AuthError struct {
	Vendor VendorType
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Vendor, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RegistryError 读取设备列表失败，终止该厂商本次拉取
type RegistryError struct {
	Vendor VendorType
	Err    error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("read %s device registry: %v", e.Vendor, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// TransportError 单次能力接口调用失败，只影响这一次调用
type TransportError struct {
	Vendor     VendorType
	DeviceID   string
	Capability string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s for device %s: status %d: %v", e.Vendor, e.Capability, e.DeviceID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s for device %s: %v", e.Vendor, e.Capability, e.DeviceID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError 单个暂存表写入失败，不影响其他表
type PersistenceError struct {
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist into %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MergeError 归并到宽表失败，终止该厂商的归并（不写入部分行）
type MergeError struct {
	Vendor VendorType
	// Row is the 1-based staging row index, 0 when the failure is not row specific.
	Row    int
	Column string
	Err    error
}

func (e *MergeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("merge %s row %d column %s: %v", e.Vendor, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("merge %s: %v", e.Vendor, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }
