package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")

	// ErrNotFound 不区分“不存在”和“不属于当前用户”
	ErrNotFound            = errors.New("resource not found")
	ErrEmptyModule         = errors.New("module has no questions")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidQuestionType = fmt.Errorf("%w: answer does not match question type", ErrInvalidInput)
	ErrAttemptBusy         = errors.New("attempt is being modified by another request")
)
