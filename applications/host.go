package applications

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
)

// ApplicationHost identifies an application deployment. Two hosts are equivalent when all
// three fields match; a TestApplicationManager keeps one boundary per equivalent host.
type ApplicationHost struct {
	ID           string
	VirtualPath  string
	PhysicalPath string
}

// NewApplicationHost returns a host descriptor. All three values are required. The physical
// path is not checked here; whether it can be hosted is decided when a boundary is created.
func NewApplicationHost(id, virtualPath, physicalPath string) (ApplicationHost, error) {
	h := ApplicationHost{ID: id, VirtualPath: virtualPath, PhysicalPath: physicalPath}
	if err := h.Validate(); err != nil {
		return ApplicationHost{}, err
	}
	return h, nil
}

// Validate checks that every field is set.
func (h ApplicationHost) Validate() error {
	var missing []string
	if strings.TrimSpace(h.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(h.VirtualPath) == "" {
		missing = append(missing, "virtual path")
	}
	if strings.TrimSpace(h.PhysicalPath) == "" {
		missing = append(missing, "physical path")
	}
	if len(missing) > 0 {
		return liveerr.Configurationf("ApplicationHost", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h ApplicationHost) String() string {
	return fmt.Sprintf("%s (%s -> %s)", h.ID, h.VirtualPath, h.PhysicalPath)
}

// Site returns the hosting view of this descriptor.
func (h ApplicationHost) Site() hosting.Site {
	return hosting.Site{ApplicationID: h.ID, VirtualPath: h.VirtualPath, PhysicalPath: h.PhysicalPath}
}

func (h ApplicationHost) key() string {
	return h.ID + "\x00" + h.VirtualPath + "\x00" + h.PhysicalPath
}
