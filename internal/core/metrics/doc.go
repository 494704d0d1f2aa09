// Package metrics 提供 Prometheus 监控指标
//
// Metrics 同时实现 messenger.Observer 与 cbjx.Observer，并记录传输层的
// 线格式字节数：
//
//	overlay_messenger_messages_queued_total
//	overlay_messenger_messages_accepted_total
//	overlay_messenger_messages_failed_total{reason}
//	overlay_messenger_queue_overflows_total
//	overlay_messenger_queue_depth
//	overlay_messenger_state_transitions_total{from,to}
//	overlay_cbjx_verifications_total{result,step}
//	overlay_wire_bytes_total{direction}
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	if err != nil {
//	    return err
//	}
//	f, _ := messenger.NewFactory(cfg.Messenger, nil, m, bus)
//	verifier.SetObserver(m)
//
// 未提供 Registerer 时 fx 模块使用独立的 Registry，可经 Metrics.Gatherer 导出。
package metrics
