package errs

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类。
// 所有权校验失败一律归为 KindNotFound，对外不区分“不存在”和“不属于当前用户”。
type Kind int

const (
	KindInternal Kind = iota // 内部错误（持久层等），对外不暴露细节
	KindNotFound             // 实体不存在 / 不属于当前用户
	KindValidation           // 入参不合法
	KindConflict             // 违反唯一性等约束
	KindUnauthorized         // 凭证无效（登录失败、改密旧密码不对）
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误。
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选：底层错误
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorizedf(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Internal 包装底层错误；msg 为对外可见的描述，err 只进日志。
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// Classified 判断错误是否已带分类。
func Classified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// KindOf 提取错误分类；非 *Error 一律按内部错误处理。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message 提取对外可见的错误描述。
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "internal error"
		}
		return e.Msg
	}
	return "internal error"
}
