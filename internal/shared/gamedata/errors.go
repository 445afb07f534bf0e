package gamedata

import "TextRPG/modules/kit/errx"

type Code = errx.Code

const CodeTemplateLoad Code = "TEMPLATE_LOAD"

// ErrTemplateLoad 是模板加载期错误：致命，必须在任何角色创建前中止启动。
var ErrTemplateLoad = errx.NewFatal(CodeTemplateLoad, "职业模板加载失败")

func loadError(path, detail string, cause error) error {
	e := ErrTemplateLoad.WithDataMap(map[string]any{
		"path":   path,
		"detail": detail,
	})
	if cause != nil {
		return e.WithCause(cause)
	}
	return e
}
