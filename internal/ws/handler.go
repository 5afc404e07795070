package ws

import (
	"encoding/json"

	"drawboard/internal/metrics"
	"drawboard/internal/room"
	"drawboard/internal/session"

	"github.com/rs/zerolog/log"
)

// Handler 是每条连接的协议分发器：入站消息 → 日志变更 → 房间扇出。
type Handler struct {
	rooms *room.Registry
}

func NewHandler(rooms *room.Registry) *Handler {
	return &Handler{rooms: rooms}
}

// Join 完成入场握手：加入房间、向新会话下发身份与花名册、
// 日志非空时对其单独做全量同步、向其他会话广播 user-joined。
func (h *Handler) Join(s *session.Session) {
	rm := h.rooms.AddUser(s.RoomID, s)
	roster := h.rooms.Roster(s.RoomID)

	welcome := userJoinedMessage{Type: "user-joined", UserID: s.ID, Color: s.Color, Username: s.Username, Users: roster}
	h.sendTo(s, welcome)

	if snap := rm.Log.Snapshot(); snap.OperationCount > 0 {
		h.sendTo(s, stateSyncMessage{Type: "state-sync", Operations: snap.Operations})
	}

	h.rooms.Broadcast(s.RoomID, welcome, s.ID)
}

// Leave 在连接关闭后移出会话并向剩余会话广播 user-left。
func (h *Handler) Leave(s *session.Session) {
	h.rooms.RemoveUser(s.RoomID, s.ID)
	h.rooms.Broadcast(s.RoomID, userLeftMessage{
		Type:   "user-left",
		UserID: s.ID,
		Users:  h.rooms.Roster(s.RoomID),
	}, s.ID)
}

// Handle 解析入站帧并按 type 分发，未知 type 静默忽略，
// 解析失败只记日志，连接保持打开。
func (h *Handler) Handle(s *session.Session, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Msg("malformed message")
		return
	}

	rm := h.rooms.Get(s.RoomID)
	if rm == nil {
		return
	}

	switch msg.Type {
	case "draw":
		if msg.Data == nil {
			log.Warn().Str("session_id", s.ID).Msg("draw message without payload")
			return
		}
		op := rm.Log.Append(s.ID, *msg.Data)
		metrics.OperationsTotal.WithLabelValues("draw").Inc()
		// 刻意回显给发送者本人，保证服务端与全部客户端状态可证一致。
		h.rooms.Broadcast(s.RoomID, drawMessage{Type: "draw", UserID: s.ID, Data: op.Data}, "")
	case "cursor":
		if !s.AllowCursor() {
			return
		}
		h.rooms.Broadcast(s.RoomID, cursorMessage{Type: "cursor", UserID: s.ID, X: msg.X, Y: msg.Y}, s.ID)
	case "undo":
		res := rm.Log.Undo()
		if !res.OK {
			log.Debug().Str("session_id", s.ID).Str("reason", res.Reason).Msg("undo rejected")
			return
		}
		metrics.OperationsTotal.WithLabelValues("undo").Inc()
		h.rooms.Broadcast(s.RoomID, historyMessage{Type: "undo", Operations: res.Operations}, "")
	case "redo":
		res := rm.Log.Redo()
		if !res.OK {
			log.Debug().Str("session_id", s.ID).Str("reason", res.Reason).Msg("redo rejected")
			return
		}
		metrics.OperationsTotal.WithLabelValues("redo").Inc()
		h.rooms.Broadcast(s.RoomID, historyMessage{Type: "redo", Operations: res.Operations}, "")
	case "clear":
		rm.Log.Clear()
		metrics.OperationsTotal.WithLabelValues("clear").Inc()
		h.rooms.Broadcast(s.RoomID, clearMessage{Type: "clear"}, "")
	}
}

func (h *Handler) sendTo(s *session.Session, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("marshal message")
		return
	}
	if err := s.Send(data); err != nil {
		log.Debug().Str("session_id", s.ID).Msg("send skipped")
	}
}
