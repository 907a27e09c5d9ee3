// Package storage finds the synced folder that holds asset content and
// prepares it for use.
//
// A Locator resolves the storage root from a ranked list of candidate
// directories. Bootstrap creates the expected category folders and Probe
// reports free space and access for the verify command.
package storage
