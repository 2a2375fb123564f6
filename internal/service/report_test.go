package service

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setReportConfig 指定报告目录和保留天数
func setReportConfig(t *testing.T, dir string, retentionDays int) {
	t.Helper()
	old := config.Get()
	config.Set(&config.Config{
		Storage: config.StorageConfig{ReportsDir: dir},
		Report:  config.ReportConfig{RetentionDays: retentionDays},
	})
	t.Cleanup(func() { config.Set(old) })
}

func TestWriteReportFile(t *testing.T) {
	dir := t.TempDir()
	setReportConfig(t, dir, 30)

	now := time.Date(2025, 3, 7, 6, 0, 0, 0, time.UTC)
	report := &DailyReport{
		OrgID:      "org-1",
		OrgName:    "测试组织",
		ReportDate: "2025-03-07",
		Counts: ReportCounts{
			Dashboards: 3,
			Widgets:    12,
			Members:    5,
		},
		AuditLog: []ReportAuditEntry{
			{Action: "create", Resource: "dashboard", UserEmail: "a@b.com", CreatedAt: now},
		},
	}

	s := NewReportService()
	path, err := s.writeReportFile(report, now)
	require.NoError(t, err)

	// 文件名: <组织ID>_<ISO日期>.json
	assert.Equal(t, filepath.Join(dir, "org-1_2025-03-07.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// 单行 JSON，不含换行
	assert.False(t, bytes.ContainsRune(data, '\n'))

	var decoded DailyReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "org-1", decoded.OrgID)
	assert.Equal(t, int64(3), decoded.Counts.Dashboards)
	assert.Equal(t, int64(12), decoded.Counts.Widgets)
	assert.Len(t, decoded.AuditLog, 1)
}

func TestCleanupOldReports(t *testing.T) {
	dir := t.TempDir()
	setReportConfig(t, dir, 30)

	now := time.Now()

	// 过期文件：修改时间 40 天前
	oldFile := filepath.Join(dir, model.ReportFileName("org-old", now.AddDate(0, 0, -40)))
	require.NoError(t, os.WriteFile(oldFile, []byte("{}"), 0644))
	oldTime := now.AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	// 未过期文件
	freshFile := filepath.Join(dir, model.ReportFileName("org-new", now))
	require.NoError(t, os.WriteFile(freshFile, []byte("{}"), 0644))

	// 非 JSON 文件不清理
	otherFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(otherFile, []byte("keep"), 0644))
	require.NoError(t, os.Chtimes(otherFile, oldTime, oldTime))

	s := NewReportService()
	s.CleanupOldReports(now)

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err), "过期报告应被删除")

	_, err = os.Stat(freshFile)
	assert.NoError(t, err, "未过期报告应保留")

	_, err = os.Stat(otherFile)
	assert.NoError(t, err, "非报告文件应保留")
}

func TestCleanupOldReportsMissingDir(t *testing.T) {
	setReportConfig(t, filepath.Join(t.TempDir(), "does-not-exist"), 30)

	// 目录不存在时不应 panic
	s := NewReportService()
	s.CleanupOldReports(time.Now())
}
