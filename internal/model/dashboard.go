package model

// Dashboard 仪表盘
type Dashboard struct {
	BaseModel
	OrgID       string              `gorm:"type:varchar(36);index;not null" json:"org_id"`
	OwnerID     string              `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Name        string              `gorm:"type:varchar(100);not null" json:"name"`
	Description string              `gorm:"type:text" json:"description"`
	Layout      string              `gorm:"type:json" json:"layout"` // 前端栅格布局 JSON
	Visibility  DashboardVisibility `gorm:"type:varchar(20);default:team" json:"visibility"`
	Starred     bool                `gorm:"default:false" json:"starred"`

	// 关联
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Widgets []Widget `gorm:"foreignKey:DashboardID" json:"widgets,omitempty"`
}

// DashboardVisibility 仪表盘可见性
type DashboardVisibility string

const (
	DashboardVisibilityPrivate DashboardVisibility = "private" // 仅创建者可见
	DashboardVisibilityTeam    DashboardVisibility = "team"    // 组织内可见
)

func (Dashboard) TableName() string {
	return "dashboards"
}

// Widget 仪表盘组件
type Widget struct {
	BaseModel
	DashboardID string     `gorm:"type:varchar(36);index;not null" json:"dashboard_id"`
	Type        WidgetType `gorm:"type:varchar(20);not null" json:"type"`
	Title       string     `gorm:"type:varchar(100);not null" json:"title"`
	PosX        int        `gorm:"default:0" json:"pos_x"`
	PosY        int        `gorm:"default:0" json:"pos_y"`
	Width       int        `gorm:"default:4" json:"width"`
	Height      int        `gorm:"default:3" json:"height"`
	Config      string     `gorm:"type:json" json:"config"` // 图表配置 JSON
	Query       string     `gorm:"type:text" json:"query"`  // 数据查询定义

	// 关联
	Dashboard *Dashboard `gorm:"foreignKey:DashboardID" json:"dashboard,omitempty"`
}

// WidgetType Widget 类型
type WidgetType string

const (
	WidgetTypeChart  WidgetType = "chart"  // 图表
	WidgetTypeTable  WidgetType = "table"  // 表格
	WidgetTypeMetric WidgetType = "metric" // 指标卡
	WidgetTypeText   WidgetType = "text"   // 文本
)

func (Widget) TableName() string {
	return "widgets"
}

// IsValidWidgetType 检查 Widget 类型取值是否合法
func IsValidWidgetType(t WidgetType) bool {
	switch t {
	case WidgetTypeChart, WidgetTypeTable, WidgetTypeMetric, WidgetTypeText:
		return true
	}
	return false
}

// Comment 仪表盘评论
type Comment struct {
	BaseModel
	DashboardID string `gorm:"type:varchar(36);index;not null" json:"dashboard_id"`
	UserID      string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Body        string `gorm:"type:text;not null" json:"body"`
	Edited      bool   `gorm:"default:false" json:"edited"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
