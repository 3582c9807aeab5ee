// ABOUTME: Update check and download loop reporting progress through a Notifier
// ABOUTME: The Source collaborator owns the actual transport

package update

import (
	"context"
	"fmt"
	"log/slog"
)

// Source knows the latest build and can download it.
type Source interface {
	Latest(ctx context.Context) (int, error)
	Download(ctx context.Context, build int, progress func(percent int)) error
}

// Updater checks for a newer build than Build and optionally downloads it.
type Updater struct {
	Build        int
	Source       Source
	Notifier     *Notifier
	JustChecking bool
	Logger       *slog.Logger
}

// Run performs one check. It returns the build found, or 0 when Build is current.
func (u *Updater) Run(ctx context.Context) (int, error) {
	logger := u.Logger
	if logger == nil {
		logger = slog.Default()
	}

	u.publish(TextUpdate{Text: "Checking for updates..."})
	latest, err := u.Source.Latest(ctx)
	if err != nil {
		u.publish(TextUpdate{Text: "Cannot check for updates."})
		u.publish(ForceDestroy{})
		return 0, fmt.Errorf("checking for updates: %w", err)
	}

	if latest <= u.Build {
		logger.Info("no update available", "build", u.Build)
		u.publish(TextUpdate{Text: "CocoMUD is up to date."})
		u.publish(ForceDestroy{})
		return 0, nil
	}

	logger.Info("update available", "build", u.Build, "latest", latest)
	u.publish(AvailableUpdate{Build: latest})
	if u.JustChecking {
		u.publish(ForceDestroy{})
		return latest, nil
	}

	u.publish(TextUpdate{Text: fmt.Sprintf("Downloading build %d...", latest)})
	last := -1
	err = u.Source.Download(ctx, latest, func(percent int) {
		percent = max(0, min(100, percent))
		if percent == last {
			return
		}
		last = percent
		u.publish(GaugeUpdate{Percent: percent})
	})
	if err != nil {
		u.publish(TextUpdate{Text: "The update could not be downloaded."})
		u.publish(ForceDestroy{})
		return latest, fmt.Errorf("downloading build %d: %w", latest, err)
	}

	u.publish(TextUpdate{Text: "Update downloaded."})
	u.publish(ForceDestroy{})
	return latest, nil
}

func (u *Updater) publish(ev Event) {
	if u.Notifier != nil {
		u.Notifier.Publish(ev)
	}
}
