package version

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/Adarsh-codesOP/one2one/internal/version.Version=...".
var Version = "dev"
