package canvas

import (
	"sync"
	"time"
)

// DefaultMaxOperations 是单个房间日志的默认容量上限。
const DefaultMaxOperations = 500

// Result 是 Undo/Redo 的结构化返回：空栈不是错误，而是带原因的失败。
type Result struct {
	OK         bool
	Reason     string
	Operations []Operation
}

// Snapshot 供新加入的客户端做一次全量同步。
type Snapshot struct {
	Operations      []Operation `json:"operations"`
	OperationCount  int         `json:"operationCount"`
	CanUndo         bool        `json:"canUndo"`
	CanRedo         bool        `json:"canRedo"`
	LastOperationID *int64      `json:"lastOperationId"`
}

// Log 是单个画布的有界可撤销操作日志。全局撤销按追加顺序回退，
// 不区分操作者；单把互斥锁保证同一房间内的变更串行执行。
type Log struct {
	mu      sync.Mutex
	max     int
	nextID  int64
	entries []Operation
	undone  []Operation
}

func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxOperations
	}
	return &Log{max: max}
}

// Append 分配下一个 ID 并追加操作，同时使所有待重做的操作失效。
// 超出容量时丢弃最旧的条目，ID 计数器不会回退。
func (l *Log) Append(userID string, data DrawData) Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	op := Operation{
		ID:        l.nextID,
		Kind:      KindDraw,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      data,
	}
	l.entries = append(l.entries, op)
	if len(l.entries) > l.max {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.max:]...)
	}
	l.undone = l.undone[:0]
	return op
}

// Undo 弹出最新的条目放入撤销栈。日志为空时返回失败，不做任何变更。
func (l *Log) Undo() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Result{OK: false, Reason: "nothing to undo"}
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	l.undone = append(l.undone, last)
	return Result{OK: true, Operations: copyOps(l.entries)}
}

// Redo 把最近撤销的操作放回日志，保留其原始 ID。
func (l *Log) Redo() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.undone) == 0 {
		return Result{OK: false, Reason: "nothing to redo"}
	}
	op := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	l.entries = append(l.entries, op)
	return Result{OK: true, Operations: copyOps(l.entries)}
}

// Clear 清空日志和撤销栈，ID 计数器保持不变。
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.undone = l.undone[:0]
}

func (l *Log) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := Snapshot{
		Operations:     copyOps(l.entries),
		OperationCount: len(l.entries),
		CanUndo:        len(l.entries) > 0,
		CanRedo:        len(l.undone) > 0,
	}
	if n := len(l.entries); n > 0 {
		id := l.entries[n-1].ID
		snap.LastOperationID = &id
	}
	return snap
}

// Since 返回 ID 严格大于给定值的所有条目，按升序排列。
func (l *Log) Since(id int64) []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Operation, 0)
	for _, op := range l.entries {
		if op.ID > id {
			out = append(out, op)
		}
	}
	return out
}

// Len 返回当前日志条目数。
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func copyOps(src []Operation) []Operation {
	out := make([]Operation, len(src))
	copy(out, src)
	return out
}
