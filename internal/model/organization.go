package model

// Organization 组织 - 资源隔离的顶层单位
type Organization struct {
	BaseModel
	Name    string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug    string    `gorm:"type:varchar(50);uniqueIndex" json:"slug"` // URL友好标识
	Logo    string    `gorm:"type:varchar(500)" json:"logo"`
	Email   string    `gorm:"type:varchar(100)" json:"email"` // 组织联系邮箱
	Website string    `gorm:"type:varchar(255)" json:"website"`
	Status  OrgStatus `gorm:"type:varchar(20);default:active" json:"status"`
	Plan    OrgPlan   `gorm:"type:varchar(20);default:free" json:"plan"` // 订阅套餐

	// 配额限制
	MaxDashboards int `gorm:"default:10" json:"max_dashboards"` // 最大仪表盘数
	MaxMembers    int `gorm:"default:5" json:"max_members"`     // 最大成员数
	MaxWebhooks   int `gorm:"default:5" json:"max_webhooks"`    // 最大 Webhook 数
	MaxAPIKeys    int `gorm:"default:5" json:"max_api_keys"`    // 最大 API Key 数

	// 关联
	Users      []User      `gorm:"foreignKey:OrgID" json:"users,omitempty"`
	Dashboards []Dashboard `gorm:"foreignKey:OrgID" json:"dashboards,omitempty"`
	Webhooks   []Webhook   `gorm:"foreignKey:OrgID" json:"webhooks,omitempty"`
}

// OrgStatus 组织状态
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"    // 正常
	OrgStatusSuspended OrgStatus = "suspended" // 已暂停
	OrgStatusDeleted   OrgStatus = "deleted"   // 已删除
)

// OrgPlan 组织套餐
type OrgPlan string

const (
	OrgPlanFree       OrgPlan = "free"       // 免费版
	OrgPlanPro        OrgPlan = "pro"        // 专业版
	OrgPlanEnterprise OrgPlan = "enterprise" // 企业版
)

func (Organization) TableName() string {
	return "organizations"
}

// GetPlanLimits 获取套餐限制
func (o *Organization) GetPlanLimits() map[string]int {
	switch o.Plan {
	case OrgPlanPro:
		return map[string]int{
			"max_dashboards": 50,
			"max_members":    20,
			"max_webhooks":   20,
			"max_api_keys":   20,
		}
	case OrgPlanEnterprise:
		return map[string]int{
			"max_dashboards": -1, // 无限制
			"max_members":    -1,
			"max_webhooks":   -1,
			"max_api_keys":   -1,
		}
	default:
		return map[string]int{
			"max_dashboards": 10,
			"max_members":    5,
			"max_webhooks":   5,
			"max_api_keys":   5,
		}
	}
}

// Setting 组织配置项
type Setting struct {
	BaseModel
	OrgID       string `gorm:"type:varchar(36);index;uniqueIndex:idx_org_key" json:"org_id"`
	Key         string `gorm:"type:varchar(100);not null;uniqueIndex:idx_org_key" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

func (Setting) TableName() string {
	return "settings"
}
