package response

// AppError 带业务码的错误包装，处理器统一用它写错误日志与响应
type AppError struct {
	Code    int    // 业务码，见 codes.go
	Message string // 已本地化的提示文案
	Err     error  // 底层错误，仅入日志不出响应
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装业务错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
