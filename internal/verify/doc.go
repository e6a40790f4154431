// Package verify spot-checks stored split-adjusted prices against the
// reference API's own adjusted prices, concentrating probes around
// recent split execution dates where adjustment bugs surface first.
package verify
