package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportFileName(t *testing.T) {
	date := time.Date(2025, 3, 7, 6, 0, 0, 0, time.UTC)

	// 文件名格式: <组织ID>_<ISO日期>.json
	assert.Equal(t, "org-abc_2025-03-07.json", ReportFileName("org-abc", date))

	// 月/日固定两位
	date = time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "org-abc_2025-11-21.json", ReportFileName("org-abc", date))
}
