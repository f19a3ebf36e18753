package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrUserNotFound            = errors.New("用户不存在")
	ErrUserEmailExist          = errors.New("邮箱已注册")
	ErrPasswordIncorrect       = errors.New("密码错误")
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrChannelNotFound         = errors.New("频道不存在")
	ErrChannelMemberExist      = errors.New("已在频道中")
	ErrNotChannelMember        = errors.New("不是频道成员")
	ErrDMWithSelf              = errors.New("不能和自己私聊")
	ErrMessageNotFound         = errors.New("消息不存在")
	ErrFileNotSupported        = errors.New("不支持的文件类型")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrUserNotFound:            NotFound,
	ErrUserEmailExist:          BadRequest,
	ErrPasswordIncorrect:       Unauthorized,
	ErrMissingLoginCredentials: Unauthorized,
	ErrChannelNotFound:         NotFound,
	ErrChannelMemberExist:      BadRequest,
	ErrNotChannelMember:        Unauthorized,
	ErrDMWithSelf:              BadRequest,
	ErrMessageNotFound:         NotFound,
	ErrFileNotSupported:        BadRequest,
	UnauthorizedError:          Unauthorized,
	UnExpectedError:            InternalServerError,
}
