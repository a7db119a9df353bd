package main

import "runtime/debug"

// version is set at release time: -ldflags "-X main.version=v1.0.0".
var version = ""

// getVersion prefers the ldflags value, then the module version recorded by
// "go install @version", then the VCS revision of a local build.
func getVersion() string {
	if version != "" {
		return version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return "dev-" + setting.Value[:7]
		}
	}
	return "dev"
}
