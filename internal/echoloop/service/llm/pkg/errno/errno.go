package errno

import (
	"errors"
)

var (
	ErrProviderNotFound   = errors.New("model provider not found")
	ErrModelNotFound      = errors.New("model not found")
	ErrNoDefaultModel     = errors.New("no default model configured")
	ErrPluginNotChatModel = errors.New("provider plugin cannot build chat models")
	ErrInvalidModelRef    = errors.New("invalid model reference")
)
