package property

import "TextRPG/modules/kit/errx"

// Code 表示属性系统的错误码。
//
// 约定：
// - 越界/只读属于可恢复错误：delta 被钳制，基础值设置被拒绝
// - 缺失/循环/重复属于加载期错误：必须中止角色创建
type Code = errx.Code

const (
	CodeOutOfRange Code = "PROPERTY_OUT_OF_RANGE"
	CodeReadOnly   Code = "PROPERTY_READ_ONLY"
	CodeMissing    Code = "PROPERTY_MISSING"
	CodeCyclic     Code = "PROPERTY_CYCLIC_DEPENDENCY"
	CodeDuplicate  Code = "PROPERTY_DUPLICATE"
)

var (
	ErrOutOfRange = errx.NewBiz(CodeOutOfRange, "属性值超出范围")
	ErrReadOnly   = errx.NewBiz(CodeReadOnly, "派生属性不可直接修改")
	ErrMissing    = errx.NewFatal(CodeMissing, "属性不存在")
	ErrCyclic     = errx.NewFatal(CodeCyclic, "属性依赖存在环")
	ErrDuplicate  = errx.NewFatal(CodeDuplicate, "属性重复定义")
)

func outOfRange(name string, v, lo, hi int) *errx.Error {
	return ErrOutOfRange.WithDataMap(map[string]any{
		"property": name,
		"value":    v,
		"min":      lo,
		"max":      hi,
	})
}

func readOnly(name string) *errx.Error {
	return ErrReadOnly.WithData("property", name)
}

func missing(name string) *errx.Error {
	return ErrMissing.WithData("property", name)
}
