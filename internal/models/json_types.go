package models

import (
	"database/sql/driver"
	"encoding/json"
)

// jsonValue 序列化为字符串写库。
// 以 TEXT 而非 BLOB 落盘，数据库侧的 LIKE 粗过滤才能命中。
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonScanBytes 兼容驱动返回的 []byte 与 string 两种形态
func jsonScanBytes(value interface{}) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// JSON 通用 JSON 对象类型
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return jsonValue(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes := jsonScanBytes(value)
	if bytes == nil {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray 字符串数组类型，用于存储 tags 等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(s))
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes := jsonScanBytes(value)
	if bytes == nil {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// UintArray 无符号整型数组类型，用于存储有序的规则ID列表
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (a UintArray) Value() (driver.Value, error) {
	if a == nil {
		return jsonValue([]uint{})
	}
	return jsonValue([]uint(a))
}

// Scan 实现 sql.Scanner 接口
func (a *UintArray) Scan(value interface{}) error {
	if value == nil {
		*a = UintArray{}
		return nil
	}
	bytes := jsonScanBytes(value)
	if bytes == nil {
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Contains 判断数组中是否已有指定ID
func (a UintArray) Contains(id uint) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// Without 返回去掉指定ID后的新数组（保持原有顺序）
func (a UintArray) Without(id uint) UintArray {
	result := make(UintArray, 0, len(a))
	for _, v := range a {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}
