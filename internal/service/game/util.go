package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// GenID 生成 UUIDv7，取尾部作为短 ID 使用
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// ShortID 取 UUID 尾部 8 位，用于会话等人类可读的场合
func ShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("Failed to marshal: " + err.Error())
	}

	return data
}
