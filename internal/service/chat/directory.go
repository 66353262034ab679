package chat

import (
	"sort"
	"sync"
)

// Session 一条已认证的实时连接
// Send 不阻塞，连接已关闭或出站队列已满时返回 false
type Session interface {
	UserId() string
	ConnId() string
	Send(event string, payload any) bool
	Close()
}

// Directory 在线会话目录：用户 uuid -> 当前连接，以及会话房间成员
// 每个用户至多一个连接，后注册的覆盖先注册的。
// 房间成员按用户记录，连接被替换后新连接自动继承房间。
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rooms    map[string]map[string]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Register 绑定用户与连接，返回被替换的旧连接（没有则为 nil）
func (d *Directory) Register(s Session) Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.sessions[s.UserId()]
	d.sessions[s.UserId()] = s
	if prev != nil && prev.ConnId() == s.ConnId() {
		return nil
	}
	return prev
}

// Lookup 查找用户当前连接
func (d *Directory) Lookup(userId string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[userId]
	return s, ok
}

// Unregister 仅当绑定的仍是 s 时移除绑定并退出所有房间，两步在同一把锁内完成
// 新连接此后注册时重新加入房间，不会被旧连接的清理移出
func (d *Directory) Unregister(s Session) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.sessions[s.UserId()]
	if !ok || cur.ConnId() != s.ConnId() {
		return false
	}
	delete(d.sessions, s.UserId())
	for room := range d.rooms {
		d.leaveLocked(room, s.UserId())
	}
	return true
}

// Count 在线连接数
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// OnlineUserIds 在线用户 uuid，升序
func (d *Directory) OnlineUserIds() []string {
	d.mu.RLock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// CloseAll 关闭全部在线连接，返回关闭数量
// 连接随后各自走断线清理，目录由 Disconnect 移除
func (d *Directory) CloseAll() int {
	d.mu.RLock()
	sessions := make([]Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.mu.RUnlock()
	for _, s := range sessions {
		s.Close()
	}
	return len(sessions)
}

// SendTo 向在线用户推送事件，用户不在线返回 false
func (d *Directory) SendTo(userId, event string, payload any) bool {
	s, ok := d.Lookup(userId)
	if !ok {
		return false
	}
	return s.Send(event, payload)
}

// ==================== 房间 ====================

func (d *Directory) Join(room, userId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	members, ok := d.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		d.rooms[room] = members
	}
	members[userId] = struct{}{}
}

func (d *Directory) Leave(room, userId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leaveLocked(room, userId)
}

func (d *Directory) leaveLocked(room, userId string) {
	members, ok := d.rooms[room]
	if !ok {
		return
	}
	delete(members, userId)
	if len(members) == 0 {
		delete(d.rooms, room)
	}
}

// RoomMembers 房间成员，升序
func (d *Directory) RoomMembers(room string) []string {
	d.mu.RLock()
	ids := make([]string, 0, len(d.rooms[room]))
	for id := range d.rooms[room] {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Broadcast 向房间内除 except 以外的在线成员推送事件，返回成功入队的连接数
func (d *Directory) Broadcast(room, except, event string, payload any) int {
	d.mu.RLock()
	targets := make([]Session, 0, len(d.rooms[room]))
	for id := range d.rooms[room] {
		if id == except {
			continue
		}
		if s, ok := d.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	d.mu.RUnlock()

	// 出锁后再推送
	sent := 0
	for _, s := range targets {
		if s.Send(event, payload) {
			sent++
		}
	}
	return sent
}
