package model

import "time"

// ReportRun 每日报告生成记录
type ReportRun struct {
	BaseModel
	OrgID      string          `gorm:"type:varchar(36);index;not null" json:"org_id"`
	ReportDate string          `gorm:"type:varchar(10);index;not null" json:"report_date"` // YYYY-MM-DD
	FilePath   string          `gorm:"type:varchar(500)" json:"file_path"`
	Summary    string          `gorm:"type:json" json:"summary"` // 各项计数 JSON
	EmailedTo  int             `gorm:"default:0" json:"emailed_to"`
	Status     ReportRunStatus `gorm:"type:varchar(20);default:success" json:"status"`
	Error      string          `gorm:"type:varchar(500)" json:"error"`
}

// ReportRunStatus 报告生成状态
type ReportRunStatus string

const (
	ReportRunStatusSuccess ReportRunStatus = "success" // 成功
	ReportRunStatusFailed  ReportRunStatus = "failed"  // 失败
)

func (ReportRun) TableName() string {
	return "report_runs"
}

// ReportFileName 报告文件名: <组织ID>_<ISO日期>.json
func ReportFileName(orgID string, date time.Time) string {
	return orgID + "_" + date.Format("2006-01-02") + ".json"
}
