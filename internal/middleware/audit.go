package middleware

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"time"

	"insighthub/internal/model"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware 审计日志中间件
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过不需要记录的路径
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/health") ||
			strings.Contains(path, "/statistics/") {
			c.Next()
			return
		}

		// 只记录写操作
		method := c.Request.Method
		if method == "GET" {
			c.Next()
			return
		}

		startTime := time.Now()

		// 读取请求体
		var requestBody string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			requestBody = string(bodyBytes)
			// 重新设置请求体供后续使用
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

			// 脱敏处理密码字段
			if strings.Contains(requestBody, "password") {
				requestBody = maskSensitiveData(requestBody)
			}
		}

		// 处理请求
		c.Next()

		// 记录日志
		duration := time.Since(startTime).Milliseconds()

		orgID, _ := c.Get("org_id")
		userID, _ := c.Get("user_id")
		userEmail, _ := c.Get("email")

		action, resource, resourceID := parseActionFromPath(method, path)

		entry := model.AuditLog{
			OrgID:        toString(orgID),
			UserID:       toString(userID),
			UserEmail:    toString(userEmail),
			Action:       action,
			Resource:     resource,
			ResourceID:   resourceID,
			Description:  generateDescription(action, resource),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			RequestBody:  truncateString(requestBody, 2000),
			ResponseCode: c.Writer.Status(),
			Duration:     duration,
		}

		// 异步写入日志
		go func() {
			model.DB.Create(&entry)
		}()
	}
}

// parseActionFromPath 从路径解析操作类型
func parseActionFromPath(method, path string) (action, resource, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// 解析资源类型
	for _, part := range parts {
		switch part {
		case "dashboards":
			resource = model.ResourceDashboard
		case "widgets":
			resource = model.ResourceWidget
		case "webhooks":
			resource = model.ResourceWebhook
		case "members", "invitations":
			resource = model.ResourceMember
		case "organization":
			resource = model.ResourceOrganization
		case "api-keys":
			resource = model.ResourceAPIKey
		case "comments":
			resource = model.ResourceComment
		case "billing", "invoices":
			resource = model.ResourceBilling
		case "reports":
			resource = model.ResourceReport
		case "settings":
			resource = model.ResourceSetting
		case "auth":
			resource = model.ResourceUser
		}
	}

	// 解析操作类型
	switch method {
	case "POST":
		if strings.Contains(path, "/login") {
			action = model.ActionLogin
		} else if strings.Contains(path, "/invite") || strings.HasSuffix(path, "/members") {
			action = model.ActionInvite
		} else if strings.Contains(path, "/revoke") {
			action = model.ActionRevoke
		} else if strings.Contains(path, "/reset") {
			action = model.ActionReset
		} else {
			action = model.ActionCreate
		}
	case "PUT", "PATCH":
		action = model.ActionUpdate
	case "DELETE":
		action = model.ActionDelete
	default:
		action = method
	}

	// 尝试提取资源ID
	for i, part := range parts {
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			resourceID = part
			break
		}
		// 检查是否是资源类型后面的ID
		if i > 0 && isResourceType(parts[i-1]) && len(part) > 0 {
			resourceID = part
		}
	}

	return
}

func isResourceType(s string) bool {
	types := []string{"dashboards", "widgets", "webhooks", "members", "api-keys", "comments", "invoices", "reports", "invitations"}
	for _, t := range types {
		if s == t {
			return true
		}
	}
	return false
}

func generateDescription(action, resource string) string {
	actionMap := map[string]string{
		model.ActionCreate: "创建",
		model.ActionUpdate: "更新",
		model.ActionDelete: "删除",
		model.ActionLogin:  "登录",
		model.ActionInvite: "邀请",
		model.ActionRevoke: "撤销",
		model.ActionReset:  "重置",
	}
	resourceMap := map[string]string{
		model.ResourceUser:         "用户",
		model.ResourceMember:       "成员",
		model.ResourceOrganization: "组织",
		model.ResourceDashboard:    "仪表盘",
		model.ResourceWidget:       "组件",
		model.ResourceWebhook:      "Webhook",
		model.ResourceAPIKey:       "API Key",
		model.ResourceComment:      "评论",
		model.ResourceBilling:      "账单",
		model.ResourceReport:       "报告",
		model.ResourceSetting:      "配置",
	}

	a := actionMap[action]
	if a == "" {
		a = action
	}
	r := resourceMap[resource]
	if r == "" {
		r = resource
	}

	return a + r
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var sensitiveFieldPattern = regexp.MustCompile(`"(password|old_password|new_password)"\s*:\s*"[^"]*"`)

func maskSensitiveData(data string) string {
	// 密码字段脱敏，明文不落库
	return sensitiveFieldPattern.ReplaceAllString(data, `"$1":"***"`)
}
