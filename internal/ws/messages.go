package ws

import (
	"drawboard/internal/canvas"
	"drawboard/internal/room"
)

// inboundMessage 覆盖客户端所有入站消息的字段并集，按 type 分发。
type inboundMessage struct {
	Type string           `json:"type"`
	Data *canvas.DrawData `json:"data"`
	X    float64          `json:"x"`
	Y    float64          `json:"y"`
}

type userJoinedMessage struct {
	Type     string          `json:"type"`
	UserID   string          `json:"userId"`
	Color    string          `json:"color"`
	Username string          `json:"username"`
	Users    []room.UserInfo `json:"users"`
}

type userLeftMessage struct {
	Type   string          `json:"type"`
	UserID string          `json:"userId"`
	Users  []room.UserInfo `json:"users"`
}

type stateSyncMessage struct {
	Type       string             `json:"type"`
	Operations []canvas.Operation `json:"operations"`
}

type drawMessage struct {
	Type   string          `json:"type"`
	UserID string          `json:"userId"`
	Data   canvas.DrawData `json:"data"`
}

type cursorMessage struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// historyMessage 承载 undo/redo 成功后的完整操作序列。
type historyMessage struct {
	Type       string             `json:"type"`
	Operations []canvas.Operation `json:"operations"`
}

type clearMessage struct {
	Type string `json:"type"`
}
