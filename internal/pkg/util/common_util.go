package util

import (
	"strconv"
	"time"
)

// StrToUint64 行变更事件里的数值字段均为字符串，统一在这里转换
func StrToUint64(v interface{}) uint64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// StrToTime 解析 RFC3339 时间字符串，失败返回零值
func StrToTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StrField 取字符串字段，缺失返回空串
func StrField(v interface{}) string {
	s, _ := v.(string)
	return s
}
