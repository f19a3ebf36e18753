package feed

// EventType 订阅关注的变更类型
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventAny    EventType = "any"
)

// Row 单行变更数据，字段值为字符串
type Row map[string]interface{}

// Predicate 行过滤条件，nil 表示全量
type Predicate func(Row) bool

// Handler 行变更回调
type Handler func(Row)

// Descriptor 一条订阅的静态描述
type Descriptor struct {
	Table     string
	Event     EventType
	Predicate Predicate
}

// Subscription 订阅句柄，退订时原样传回
type Subscription struct {
	id      uint64
	desc    Descriptor
	handler Handler
}
