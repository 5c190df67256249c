// Package version holds the build version, set with
// -ldflags "-X github.com/ndewijer/Investment-Backtest-Backend/internal/version.Version=...".
package version

// Version is the application version.
var Version = "dev"
