// Package usage reports how much of the probed storage quota is in use.
package usage
