package global

// ShowTimingLogs 控制是否输出耗时日志（debug 级别）
var ShowTimingLogs bool
