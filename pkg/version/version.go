// Package version exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/NicolasHaas/chanrelay/pkg/version.tag=v1.0.0
//	  -X github.com/NicolasHaas/chanrelay/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/chanrelay/pkg/version.date=2026-01-01"
package version

import "log/slog"

var (
	tag    = ""
	commit = "unknown"
	date   = "unknown"
)

// Info describes the running binary.
type Info struct {
	Tag    string
	Commit string
	Date   string
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{Tag: tag, Commit: commit, Date: date}
}

// String returns the tag, the commit for untagged builds, or "dev".
func (i Info) String() string {
	switch {
	case i.Tag != "":
		return i.Tag
	case i.Commit != "unknown" && i.Commit != "":
		return i.Commit
	default:
		return "dev"
	}
}

// Full returns the version with commit and build date when known.
func (i Info) Full() string {
	v := i.String()
	if v == "dev" {
		return v
	}
	if i.Tag != "" {
		v += " (" + i.Commit + ")"
	}
	return v + " built " + i.Date
}

// LogValue groups the build fields in structured logs.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", i.String()),
		slog.String("commit", i.Commit),
		slog.String("date", i.Date),
	)
}
