package services

import "errors"

// ErrNotFound 请求的记录不存在，或调用方无权访问
var ErrNotFound = errors.New("record not found")
