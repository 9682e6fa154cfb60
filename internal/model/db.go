package model

// 以下为设备注册/凭据元数据表，归外部导入工具所有，本任务只读。
// 模型只声明本任务读取的列；启动时不会对已存在的表做任何迁移。

// LotekCredential Lotek 账号凭据
type LotekCredential struct {
	Username string `gorm:"column:username;type:text"`
	Password string `gorm:"column:pw;type:text"`
}

// LotekCollar Lotek 项圈注册信息（外部表还有其他列，这里只读 device_id）
type LotekCollar struct {
	DeviceID string `gorm:"column:device_id;type:text"`
}

// VectronicCollar Vectronic 项圈注册信息（含从 .keyx 文件导入的 collarkey）
type VectronicCollar struct {
	IDCollar   string `gorm:"column:idcollar;type:text"`
	ComType    string `gorm:"column:comtype;type:text"`
	IDCom      string `gorm:"column:idcom;type:text"`
	CollarKey  string `gorm:"column:collarkey;type:text"`
	CollarType string `gorm:"column:collartype;type:text"`
}

func (LotekCredential) TableName() string { return "api_lotex_lp" }
func (LotekCollar) TableName() string     { return "api_lotex_collar_data" }
func (VectronicCollar) TableName() string { return "api_vectronics_collar_data" }
