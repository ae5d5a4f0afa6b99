package goutil

import (
	"strings"
	"time"
)

func ContainsStr(arr []string, str string) bool {
	for _, v := range arr {
		if v == str {
			return true
		}
	}
	return false
}

// FirstStr returns the first element of arr, or nil when arr is empty or starts with a blank value.
func FirstStr(arr []string) *string {
	if len(arr) == 0 || strings.TrimSpace(arr[0]) == "" {
		return nil
	}
	return String(arr[0])
}

// NilIfEmpty turns a blank string pointer into nil so it is skipped by filters.
func NilIfEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func NowUnix() uint64 {
	return uint64(time.Now().Unix())
}
