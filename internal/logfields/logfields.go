package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID    = "cycle_id"
	KeyStage      = "stage"
	KeyDoc        = "doc"
	KeyAsset      = "asset"
	KeyArtifact   = "artifact"
	KeyTarget     = "target"
	KeyTheme      = "theme"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr    { return slog.String(KeyCycleID, id) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func Doc(path string) slog.Attr      { return slog.String(KeyDoc, path) }
func Asset(path string) slog.Attr    { return slog.String(KeyAsset, path) }
func Artifact(path string) slog.Attr { return slog.String(KeyArtifact, path) }
func Target(t string) slog.Attr      { return slog.String(KeyTarget, t) }
func Theme(name string) slog.Attr    { return slog.String(KeyTheme, name) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr     { return slog.String(KeyOutcome, o) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000.0)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
