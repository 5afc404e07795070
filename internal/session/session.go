package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Conn 是会话写出消息所依赖的传输能力，由 ws 层实现。
// 广播方只关心“能否投递”，不接触具体连接。
type Conn interface {
	Send(data []byte) error
	Alive() bool
}

// Session 代表一条活跃连接及其在连接时分配的身份。
type Session struct {
	ID       string
	Username string
	Color    string
	RoomID   string
	JoinedAt time.Time

	conn   Conn
	cursor *rate.Limiter
}

// Send 向会话的传输层写出一条已序列化的消息。
func (s *Session) Send(data []byte) error { return s.conn.Send(data) }

// Alive 报告传输层是否仍可写。
func (s *Session) Alive() bool { return s.conn.Alive() }

// AllowCursor 判断是否放行一条光标消息，超频直接丢弃而不是排队。
func (s *Session) AllowCursor() bool { return s.cursor.Allow() }

// Registry 是进程级的在线会话表，连接建立时分配身份，断开时移除。
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	colorIdx   int
	nameIdx    int
	cursorRate int
}

func NewRegistry(cursorRate int) *Registry {
	if cursorRate <= 0 {
		cursorRate = 30
	}
	return &Registry{sessions: make(map[string]*Session), cursorRate: cursorRate}
}

// Create 为新连接分配会话：uuid、轮转调色板中的颜色、生成的显示名。
// 同一个 ID 不会再分配给其他连接。
func (r *Registry) Create(roomID, username string, conn Conn) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if username == "" {
		username = nextName(r.nameIdx)
		r.nameIdx++
	}
	s := &Session{
		ID:       uuid.New().String(),
		Username: username,
		Color:    palette[r.colorIdx%len(palette)],
		RoomID:   roomID,
		JoinedAt: time.Now(),
		conn:     conn,
		cursor:   rate.NewLimiter(rate.Limit(r.cursorRate), r.cursorRate),
	}
	r.colorIdx++
	r.sessions[s.ID] = s
	log.Debug().Str("session_id", s.ID).Str("room", roomID).Str("username", s.Username).Msg("session created")
	return s
}

// Remove 在断开时删除会话。
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get 按 ID 查找会话，不存在时返回 nil。
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Count 返回当前在线会话数。
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
