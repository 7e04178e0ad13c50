package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizSessionKey returns the cache key for a user's in-flight quiz session
func (r *CacheKeyStruct) QuizSessionKey(email string) string {
	return fmt.Sprintf("quiz:session:%s", email)
}

// RevokedTokenKey returns the cache key marking a JWT id as logged out
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// MetadataRecordKey returns the hash key holding one metadata record
func (r *CacheKeyStruct) MetadataRecordKey(id string) string {
	return fmt.Sprintf("meta:record:%s", id)
}

// MetadataTypeIndexKey returns the sorted-set index of all records of one type
func (r *CacheKeyStruct) MetadataTypeIndexKey(recordType string) string {
	return fmt.Sprintf("meta:idx:%s", recordType)
}

// MetadataEmailIndexKey returns the sorted-set index of one type filtered by email
func (r *CacheKeyStruct) MetadataEmailIndexKey(recordType, email string) string {
	return fmt.Sprintf("meta:idx:%s:email:%s", recordType, email)
}

// MetadataSequenceKey returns the counter that orders records by first insertion
func (r *CacheKeyStruct) MetadataSequenceKey() string {
	return "meta:seq"
}

var CacheKey = NewCacheKeyStruct()
