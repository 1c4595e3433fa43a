package services

import "sync/atomic"

// Metrics 识别服务的进程内计数器，所有方法并发安全
type Metrics struct {
	requests  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
}

// MetricsSnapshot 计数器的时点快照
type MetricsSnapshot struct {
	Requests  int64 `json:"requests"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
}

// RecordRequest 记录一次识别请求
func (m *Metrics) RecordRequest() {
	m.requests.Add(1)
}

// RecordSuccess 记录一次成功（含缓存命中）
func (m *Metrics) RecordSuccess() {
	m.successes.Add(1)
}

// RecordFailure 记录一次失败
func (m *Metrics) RecordFailure() {
	m.failures.Add(1)
}

// Snapshot 读取当前计数
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:  m.requests.Load(),
		Successes: m.successes.Load(),
		Failures:  m.failures.Load(),
	}
}
