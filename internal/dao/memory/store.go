// Package memory 提供进程内的 Repository 实现
// 用于本地开发（storeConfig.driver = "memory"）和测试，重启后数据丢失。
// 所有操作在同一把互斥锁内完成，单个操作即原子操作。
// Transaction 不隔离并发读写，只保证失败时按相反顺序撤销事务内已执行的写操作。
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

// Store 进程内存储
type Store struct {
	mu sync.Mutex

	seq           uint
	users         map[string]*model.UserInfo
	contacts      map[string][]string // user uuid -> 联系人 uuid（有序）
	conversations map[string]*model.Conversation
	pairIndex     map[string]string   // pair_key -> conversation uuid
	messages      map[string]*model.Message
	byConv        map[string][]string // conversation uuid -> message uuid（按创建顺序）

	now func() time.Time
}

// NewStore 创建空的进程内存储
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*model.UserInfo),
		contacts:      make(map[string][]string),
		conversations: make(map[string]*model.Conversation),
		pairIndex:     make(map[string]string),
		messages:      make(map[string]*model.Message),
		byConv:        make(map[string][]string),
		now:           time.Now,
	}
}

// Repositories 返回基于此存储的 Repository 聚合
func (s *Store) Repositories() *repository.Repositories {
	return s.repositories(nil).WithTransaction(s.transaction)
}

func (s *Store) repositories(undo *undoLog) *repository.Repositories {
	return repository.NewRepositoriesFrom(
		&userRepository{s: s, undo: undo},
		&conversationRepository{s: s, undo: undo},
		&messageRepository{s: s, undo: undo},
	)
}

// transaction fn 返回错误时撤销其中已执行的写操作
func (s *Store) transaction(_ context.Context, fn func(txRepos *repository.Repositories) error) error {
	undo := &undoLog{}
	if err := fn(s.repositories(undo)); err != nil {
		s.mu.Lock()
		undo.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// undoLog 事务内写操作的撤销步骤，记录与执行都在持有 Store 锁时进行
type undoLog struct {
	steps []func()
}

// record nil 表示不在事务中
func (u *undoLog) record(step func()) {
	if u != nil {
		u.steps = append(u.steps, step)
	}
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

// AddContact 将 contactId 加入 userId 的联系人列表（单向），测试用
func (s *Store) AddContact(userId, contactId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addContactLocked(userId, contactId)
}

func (s *Store) addContactLocked(userId, contactId string) bool {
	for _, id := range s.contacts[userId] {
		if id == contactId {
			return false
		}
	}
	s.contacts[userId] = append(s.contacts[userId], contactId)
	return true
}

func (s *Store) removeContactLocked(userId, contactId string) bool {
	list := s.contacts[userId]
	for i, id := range list {
		if id == contactId {
			s.contacts[userId] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// nextModel 分配自增 ID 与时间戳，调用方需持有锁
func (s *Store) nextModel() (uint, time.Time) {
	s.seq++
	// 保证同一毫秒内创建的记录仍有确定的先后顺序
	return s.seq, s.now().Add(time.Duration(s.seq) * time.Nanosecond)
}

func notFound(format string, args ...any) error {
	return errorx.Newf(errorx.CodeNotFound, format, args...)
}

func copyUser(u *model.UserInfo) *model.UserInfo {
	c := *u
	return &c
}

func copyConversation(conv *model.Conversation) *model.Conversation {
	c := *conv
	c.Participants = append([]model.ConversationParticipant(nil), conv.Participants...)
	if conv.PairKey != nil {
		key := *conv.PairKey
		c.PairKey = &key
	}
	return &c
}

func copyMessage(m *model.Message) *model.Message {
	c := *m
	c.DeletedFor = append([]model.MessageDeletion(nil), m.DeletedFor...)
	return &c
}

// sortByUpdatedDesc 会话按更新时间倒序
func sortByUpdatedDesc(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

func validTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
