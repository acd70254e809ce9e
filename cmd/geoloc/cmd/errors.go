package cmd

import (
	"fmt"
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when the result store cannot be
// opened because another geoloc process holds it.
func diagnoseDBLock(dbPath string) string {
	return fmt.Sprintf("result store %s is locked by another process\n"+
		"  → a running 'geoloc serve' or 'geoloc watch' keeps it open\n"+
		"  → find the process:  ps aux | grep 'geoloc'\n"+
		"  → stop it, or point this command elsewhere with --store", dbPath)
}

// storeError adds lock guidance to a failed store open.
func storeError(err error, dbPath string) error {
	if isDBLockError(err) {
		return fmt.Errorf("%w\n%s", err, diagnoseDBLock(dbPath))
	}
	return err
}
