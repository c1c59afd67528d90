package hosting

import "fmt"

// Site describes the application deployment hosted by a boundary.
type Site struct {
	ApplicationID string
	VirtualPath   string
	PhysicalPath  string
}

func (s Site) String() string {
	return fmt.Sprintf("%s (%s -> %s)", s.ApplicationID, s.VirtualPath, s.PhysicalPath)
}
