// Package progress provides progress reporting for downloads.
//
// This package outputs human-readable progress information to stderr,
// including bytes transferred, completion percentage, and speed.
//
// # Usage
//
//	reporter := progress.NewReporter(Options{
//	    TotalSize: totalBytes,
//	    SourceURL: url,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as bytes arrive
//	reporter.Add(n)
//
// # Output Format
//
//	[delong] Downloading: https://example.com/dataset.bin
//	[delong] Progress: 45.2% | 1.13 GB / 2.50 GB | Speed: 12.4 MB/s
package progress
