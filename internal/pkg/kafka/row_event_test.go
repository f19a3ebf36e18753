package kafka

import (
	"testing"

	"github.com/IBM/sarama"
)

func TestToRowEvent(t *testing.T) {
	payload := `{
		"id": 12,
		"table": "messages",
		"pkNames": ["id"],
		"type": "INSERT",
		"ts": 1724900000000,
		"data": [{"id": "abc", "channel_id": "7", "sender_id": "3"}]
	}`

	ev, err := ToRowEvent(&sarama.ConsumerMessage{Value: []byte(payload)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Table != "messages" || ev.Type != "INSERT" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Data[0]["channel_id"] != "7" {
		t.Fatalf("row values must stay strings, got %v", ev.Data[0]["channel_id"])
	}
}

func TestToRowEventRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":    `{{{`,
		"empty table": `{"type":"INSERT","data":[{"id":"1"}]}`,
		"empty data":  `{"table":"messages","type":"INSERT","data":[]}`,
	}
	for name, payload := range cases {
		if _, err := ToRowEvent(&sarama.ConsumerMessage{Value: []byte(payload)}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
