// Package version holds build information injected with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "none"
)

// UserAgent is sent on every upstream request
func UserAgent() string {
	return "jenv-landing-fetcher/" + Version + " (github.com/WhyWhatHow/jenv)"
}
