package utils

import (
	"log"
	"time"
)

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) LogError(format string, args ...interface{}) {
	log.Printf("ERROR: "+format, args...)
}

func (l *Logger) LogWarning(format string, args ...interface{}) {
	log.Printf("WARNING: "+format, args...)
}

func (l *Logger) LogInfo(format string, args ...interface{}) {
	log.Printf("INFO: "+format, args...)
}

func (l *Logger) LogDebug(format string, args ...interface{}) {
	log.Printf("DEBUG: "+format, args...)
}

func (l *Logger) LogSearchQuery(query string, page, resultCount, total int) {
	log.Printf("Search Query: '%s' page %d - got %d of %d results", query, page, resultCount, total)
}

func (l *Logger) LogVersionLookup(extensionID string, count int) {
	log.Printf("Version Lookup: %s - found %d versions", extensionID, count)
}

func (l *Logger) LogDownloadRequest(extensionID, version, platform string) {
	if platform == "" {
		platform = "universal"
	}
	log.Printf("Download Request: %s@%s (%s)", extensionID, version, platform)
}

func (l *Logger) LogFileOperation(operation, filePath string, err error) {
	if err != nil {
		log.Printf("File %s ERROR: %s - %v", operation, filePath, err)
	} else {
		log.Printf("File %s SUCCESS: %s", operation, filePath)
	}
}

func (l *Logger) LogDatabaseOperation(operation string, err error) {
	if err != nil {
		log.Printf("Database %s ERROR: %v", operation, err)
	} else {
		log.Printf("Database %s: SUCCESS", operation)
	}
}

func (l *Logger) LogPerformance(operation string, duration time.Duration) {
	if duration > time.Second {
		log.Printf("PERFORMANCE: %s took %v (slow)", operation, duration)
	} else {
		log.Printf("PERFORMANCE: %s took %v", operation, duration)
	}
}
