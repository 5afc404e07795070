package canvas

import "time"

const KindDraw = "draw"

// DrawData 是一次笔画线段的载荷，日志本身不关心其内容。
type DrawData struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PrevX float64 `json:"prevX"`
	PrevY float64 `json:"prevY"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Tool  string  `json:"tool"`
}

// Operation 是日志中的一条不可变记录，ID 在单个日志内单调递增且不复用。
type Operation struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Data      DrawData  `json:"data"`
}
