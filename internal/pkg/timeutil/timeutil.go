package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms)
}
