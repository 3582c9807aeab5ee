// Package update reports update progress as typed events.
//
// The updater never talks to a user interface. It publishes events on a
// Notifier and whatever presents progress subscribes to it:
//
//	n := update.NewNotifier(logger)
//	events, _ := n.Subscribe(ctx)
//	go (&update.Updater{Build: 42, Source: src, Notifier: n}).Run(ctx)
//	for ev := range events {
//	    switch ev := ev.(type) {
//	    case update.GaugeUpdate:     // ev.Percent
//	    case update.TextUpdate:      // ev.Text
//	    case update.AvailableUpdate: // ev.Build
//	    case update.ForceDestroy:    // close the progress view
//	    }
//	}
//
// Checking and downloading builds is delegated to a Source.
package update
