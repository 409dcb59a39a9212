package version

// Version is overridden at build time with
// -ldflags "-X github.com/bitrise-io/bitrise-plugins-code-copilot/version.Version=x.y.z"
var Version = "0.1.0"
