package realtime

import "encoding/json"

// 客户端控制帧类型
const (
	ControlJoin  = "join"
	ControlLeave = "leave"
)

// ControlMessage 客户端 -> 服务端的控制帧（加组/退组）
type ControlMessage struct {
	Type  string `json:"type"`
	Group string `json:"group"`
}

// PushMessage 服务端 -> 客户端的推送帧
type PushMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}
