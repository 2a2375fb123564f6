package service

import (
	"encoding/json"
	"log"
	"sync"

	"insighthub/internal/model"

	"github.com/gorilla/websocket"
)

// NotificationService 站内通知服务
// 写入数据库的同时向在线的 WebSocket 连接实时推送
type NotificationService struct{}

// NewNotificationService 创建通知服务
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Notify 创建通知并推送
func (s *NotificationService) Notify(userID, orgID, notifyType, title, content string) {
	notification := model.Notification{
		UserID:  userID,
		OrgID:   orgID,
		Type:    notifyType,
		Title:   title,
		Content: content,
	}
	if err := model.DB.Create(&notification).Error; err != nil {
		log.Printf("创建通知失败: %v", err)
		return
	}

	GetNotificationHub().Push(userID, &notification)
}

// NotifyOrgAdmins 通知组织内全部 Owner/Admin
func (s *NotificationService) NotifyOrgAdmins(orgID, notifyType, title, content string) {
	var admins []model.User
	if err := model.DB.Where("org_id = ? AND role IN ? AND status = ?",
		orgID, []model.UserRole{model.RoleOwner, model.RoleAdmin}, model.UserStatusActive).
		Find(&admins).Error; err != nil {
		log.Printf("查询管理员失败: %v", err)
		return
	}

	for _, admin := range admins {
		s.Notify(admin.ID, orgID, notifyType, title, content)
	}
}

// hubConn 带写锁的连接包装
// gorilla/websocket 不允许并发写，多个请求协程可能同时推送给同一用户
type hubConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *hubConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NotificationHub 在线 WebSocket 连接管理
type NotificationHub struct {
	conns map[string][]*hubConn // userID -> 连接列表
	mu    sync.RWMutex
}

var (
	notificationHub     *NotificationHub
	notificationHubOnce sync.Once
)

// GetNotificationHub 获取连接管理单例
func GetNotificationHub() *NotificationHub {
	notificationHubOnce.Do(func() {
		notificationHub = &NotificationHub{
			conns: make(map[string][]*hubConn),
		}
	})
	return notificationHub
}

// Register 注册连接
func (h *NotificationHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], &hubConn{conn: conn})
}

// Unregister 注销连接
func (h *NotificationHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[userID]
	for i, c := range conns {
		if c.conn == conn {
			h.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Push 向用户的所有在线连接推送通知
func (h *NotificationHub) Push(userID string, notification *model.Notification) {
	h.mu.RLock()
	conns := append([]*hubConn(nil), h.conns[userID]...)
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return
	}

	for _, conn := range conns {
		if err := conn.write(data); err != nil {
			log.Printf("推送通知失败: %v", err)
		}
	}
}

// OnlineCount 用户在线连接数
func (h *NotificationHub) OnlineCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
