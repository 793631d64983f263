package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SubjectPaperKey returns the cache key for a subject's student-facing questions
// in stored order (answer key already stripped).
func (r *CacheKeyStruct) SubjectPaperKey(subjectID string) string {
	return fmt.Sprintf("subject:%s:paper", subjectID)
}

// SessionEventCountKey returns the cache key holding per-type client event counters for a session.
func (r *CacheKeyStruct) SessionEventCountKey(sessionID string) string {
	return fmt.Sprintf("session:%s:event_counts", sessionID)
}

var CacheKey = NewCacheKeyStruct()
