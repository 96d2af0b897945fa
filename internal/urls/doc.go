// Package urls holds the documentation links earctl prints in failure
// boxes and help text, so they can be updated in one place before a
// release.
//
// Usage:
//
//	import "github.com/muurk/earctl/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.Troubleshooting)
package urls
