package errx

// 这里定义跨模块统一的系统类错误码。
//
// 约束：
// - 这些错误码只用于系统/技术类错误归一化（便于日志检索与排障）
// - 领域错误码（例如 PROPERTY_OUT_OF_RANGE）由各领域包自行定义，不允许在 kit 里集中

const (
	// CodeInternal 表示不可预期的内部错误（兜底）。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 表示运行时不可用（actor 已停止、未初始化等）。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 表示请求等待超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeConfig 表示配置文件缺失或无法解析。
	CodeConfig Code = "CONFIG_ERROR"
	// CodeReqParamError 表示请求参数错误。
	CodeReqParamError Code = "CODE_REQ_PARAM_ERROR"
)

// 统一系统类哨兵错误（允许 WithData/WithCause 派生新对象）。
var (
	ErrInternal    = NewSys(CodeInternal, "内部错误")
	ErrUnavailable = NewSys(CodeUnavailable, "运行时不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
	ErrConfig      = NewFatal(CodeConfig, "配置错误")
	ErrReqParamERR = NewBiz(CodeReqParamError, "请求参数错误")
)
