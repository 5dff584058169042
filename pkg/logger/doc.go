// Package logger provides a structured logging interface for the hashtag scraper.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "tagscraper.log",
//	}
//	if err := logger.Initialize(cfg); err != nil {
//	    // handle error
//	}
//
//	logger.Info("session restored")
//	logger.GetLogger().InfoWithFields("page fetched", map[string]interface{}{
//	    "hashtag": "sunset",
//	    "items":   27,
//	})
package logger
