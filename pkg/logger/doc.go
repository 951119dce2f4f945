// Package logger provides a structured logging interface for the scraper.
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
//	import "ofscraper/pkg/logger"
//
//	// Initialize the global logger
//	err := logger.Initialize(logger.Options{
//	    Level: "info",
//	    File:  "/var/log/ofscraper.log",
//	})
//
//	// Use the global logger
//	logger.GetLogger().Info("Application started")
//	logger.GetLogger().WithField("creator", "handle").Info("Scrape started")
//	logger.GetLogger().WithError(err).Error("Download failed")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "downloader").
//	    WithField("worker", 2)
//
//	// Use structured logging
//	log.InfoWithFields("Download completed", map[string]interface{}{
//	    "file":     "123456.jpg",
//	    "size":     1024000,
//	    "duration": time.Second * 5,
//	})
package logger
