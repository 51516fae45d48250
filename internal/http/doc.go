// Package http provides an HTTP client configured for the music catalog API.
//
// The Client in this package handles:
//   - OAuth Authorization headers on every request
//   - JSON decoding of API responses
//   - Streaming file downloads with a size ceiling and atomic rename
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(token)
//
//	// Fetch a JSON API response
//	var resp artistResponse
//	err := client.GetJSON(ctx, apiURL, &resp)
//
//	// Download a file with a 100 MB ceiling
//	err = client.DownloadFile(ctx, mp3URL, "/path/to/file.mp3", http.DownloadOptions{
//	    MaxBytes: 100 << 20,
//	})
//
// # Error Mapping
//
// Transport failures and non-200 responses surface as *errs.NetworkError;
// a 404 surfaces as *errs.NotFoundError. Downloads that exceed MaxBytes fail
// with errs.ErrFileTooLarge and never leave a partial file at the
// destination.
package http
