// File: internal/repository/thread/snapshot.go
package thread

import "fmt"

// Supported snapshot drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// OpenSnapshotter builds the backend named by driver at path.
func OpenSnapshotter(driver, path string) (Snapshotter, error) {
	switch driver {
	case DriverFile, "":
		return NewFileSnapshotter(path)
	case DriverSQLite:
		return OpenSQLiteSnapshotter(path)
	case DriverBolt:
		return NewBoltSnapshotter(path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
