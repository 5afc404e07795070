package room

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"drawboard/internal/canvas"
	"drawboard/internal/metrics"
	"drawboard/internal/session"

	"github.com/rs/zerolog/log"
)

// Room 是一个相互隔离的画布上下文：一份操作日志加一张在线用户表。
type Room struct {
	ID        string
	CreatedAt time.Time
	Log       *canvas.Log

	users map[string]*session.Session
}

// UserInfo 是对外暴露的花名册条目，不携带任何传输句柄。
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// Stats 是房间的只读诊断数据。
type Stats struct {
	ID             string    `json:"id"`
	UserCount      int       `json:"userCount"`
	OperationCount int       `json:"operationCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Registry 管理全部房间：懒创建、空房回收、面向房间的消息扇出。
// 默认房间常驻，空了也不会被删除。
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	defaultID string
	maxOps    int
}

func NewRegistry(defaultID string, maxOps int) *Registry {
	r := &Registry{rooms: make(map[string]*Room), defaultID: defaultID, maxOps: maxOps}
	r.Create(defaultID)
	return r
}

// DefaultID 返回常驻默认房间的 ID。
func (r *Registry) DefaultID() string { return r.defaultID }

// Create 幂等地创建房间：已存在时返回现有实例。
func (r *Registry) Create(id string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(id)
}

func (r *Registry) createLocked(id string) *Room {
	if rm, ok := r.rooms[id]; ok {
		return rm
	}
	rm := &Room{
		ID:        id,
		CreatedAt: time.Now(),
		Log:       canvas.NewLog(r.maxOps),
		users:     make(map[string]*session.Session),
	}
	r.rooms[id] = rm
	metrics.RoomsActive.Set(float64(len(r.rooms)))
	log.Info().Str("room", id).Msg("room created")
	return rm
}

// Get 查找房间，不存在时返回 nil。
func (r *Registry) Get(id string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

func (r *Registry) GetOrCreate(id string) *Room {
	if rm := r.Get(id); rm != nil {
		return rm
	}
	return r.Create(id)
}

// AddUser 把会话加入目标房间，房间不存在时顺带创建。
// 创建与加入在同一把锁内完成，避免房间在两步之间被回收。
func (r *Registry) AddUser(roomID string, s *session.Session) *Room {
	r.mu.Lock()
	rm := r.createLocked(roomID)
	rm.users[s.ID] = s
	count := len(rm.users)
	r.mu.Unlock()
	log.Info().Str("room", roomID).Str("session_id", s.ID).Int("users", count).Msg("user joined")
	return rm
}

// RemoveUser 把会话移出房间；空掉的非默认房间连同其日志一起删除。
func (r *Registry) RemoveUser(roomID, sessionID string) {
	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(rm.users, sessionID)
	count := len(rm.users)
	removed := false
	if count == 0 && roomID != r.defaultID {
		delete(r.rooms, roomID)
		removed = true
	}
	metrics.RoomsActive.Set(float64(len(r.rooms)))
	r.mu.Unlock()

	log.Info().Str("room", roomID).Str("session_id", sessionID).Int("users", count).Msg("user left")
	if removed {
		log.Info().Str("room", roomID).Msg("room removed")
	}
}

// Broadcast 将消息序列化一次后扇出给房间内所有存活的会话，
// 可选排除发起者。传输不可写时跳过该会话，不影响其余投递。
func (r *Registry) Broadcast(roomID string, msg interface{}, excludeID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("broadcast marshal")
		return
	}

	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	if !ok {
		r.mu.RUnlock()
		return
	}
	targets := make([]*session.Session, 0, len(rm.users))
	for id, s := range rm.users {
		if id == excludeID {
			continue
		}
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	for _, s := range targets {
		if !s.Alive() {
			continue
		}
		if err := s.Send(data); err != nil {
			log.Debug().Str("session_id", s.ID).Msg("broadcast send skipped")
		}
	}
}

// Roster 返回房间花名册，按加入时间排序。
func (r *Registry) Roster(roomID string) []UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	users := make([]*session.Session, 0, len(rm.users))
	for _, s := range rm.users {
		users = append(users, s)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})
	out := make([]UserInfo, 0, len(users))
	for _, s := range users {
		out = append(out, UserInfo{ID: s.ID, Username: s.Username, Color: s.Color})
	}
	return out
}

// Stats 返回单个房间的诊断数据，房间不存在时返回 nil。
func (r *Registry) Stats(roomID string) *Stats {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	st := &Stats{ID: rm.ID, UserCount: len(rm.users), CreatedAt: rm.CreatedAt}
	r.mu.RUnlock()
	st.OperationCount = rm.Log.Len()
	return st
}

// List 返回所有房间的诊断数据，按房间 ID 排序。
func (r *Registry) List() []Stats {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	out := make([]Stats, 0, len(ids))
	for _, id := range ids {
		if st := r.Stats(id); st != nil {
			out = append(out, *st)
		}
	}
	return out
}
