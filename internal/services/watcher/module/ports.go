package module

import dom "mintwatch/internal/services/watcher/domain"

// Ports holds the ports exposed by the watcher module
type Ports struct {
	Worker dom.WorkerPort
	Stats  dom.StatsPort
	Reader dom.ReaderPort
}
