package ports

// Watcher monitors an inbox directory for record batches to resolve.
// The adapter (fsnotify) must filter out files it does not understand
// (only .jsonl and .csv, never its own *.resolved.jsonl output) before
// invoking onFile. Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir (non-recursive). onFile is called with the
	// absolute path of each created or rewritten batch file. The callback may
	// be invoked from any goroutine. Returns an error if the directory doesn't
	// exist or permissions are insufficient.
	Watch(dir string, onFile func(path string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onFile calls will fire. Safe to call multiple times.
	Stop() error
}
