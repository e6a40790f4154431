// Package calendar provides the NYSE trading-day calendar used for gap
// detection. It is a membership set only: weekends, computed exchange
// holidays, and a short list of unscheduled closures. Nothing here is
// persisted.
package calendar
