package kafka

import (
	"errors"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// 行变更类型，与 canal 的取值保持一致
const (
	RowInsert = "INSERT"
	RowUpdate = "UPDATE"
	RowDelete = "DELETE"
)

// RowEvent 行级变更通知的 JSON 结构
// 字段值统一序列化为字符串，消费端按需转换
type RowEvent struct {
	ID      int64    `json:"id"`
	Table   string   `json:"table"`
	PKNames []string `json:"pkNames"`
	Type    string   `json:"type"`
	TS      int64    `json:"ts"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前的数据
	Old []map[string]interface{} `json:"old"`
}

// ToRowEvent 将 kafka 消息解析为行变更事件
func ToRowEvent(msg *sarama.ConsumerMessage) (*RowEvent, error) {
	var ev RowEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return nil, err
	}

	if ev.Table == "" {
		return nil, errors.New("row event table is empty")
	}
	if len(ev.Data) == 0 {
		return nil, errors.New("row event data is empty")
	}

	return &ev, nil
}
