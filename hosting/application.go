package hosting

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ApplicationFactory builds the request pipeline of the application hosted for a site.
type ApplicationFactory interface {
	NewApplication(site Site) (http.Handler, error)
}

// ApplicationFactoryFunc adapts a function to ApplicationFactory.
type ApplicationFactoryFunc func(site Site) (http.Handler, error)

func (f ApplicationFactoryFunc) NewApplication(site Site) (http.Handler, error) {
	return f(site)
}

// HandlerApplicationFactory hosts the same handler for every site. It performs no checks on
// the site's physical path.
func HandlerApplicationFactory(h http.Handler) ApplicationFactory {
	return ApplicationFactoryFunc(func(Site) (http.Handler, error) {
		return h, nil
	})
}

// SiteApplicationFactory serves the files under a site's physical path, mounted at its
// virtual path. Requests for files that don't exist, or for paths outside the virtual path,
// get a 404.
type SiteApplicationFactory struct {
	// Middlewares are applied, in order, in front of the file server.
	Middlewares []func(http.Handler) http.Handler
}

func (f SiteApplicationFactory) NewApplication(site Site) (http.Handler, error) {
	info, err := os.Stat(site.PhysicalPath)
	if err != nil {
		return nil, fmt.Errorf("physical path %q is not reachable: %w", site.PhysicalPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("physical path %q is not a directory", site.PhysicalPath)
	}

	r := chi.NewRouter()
	r.Use(middleware.CleanPath)
	r.Use(f.Middlewares...)

	prefix := strings.TrimSuffix(site.VirtualPath, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(site.PhysicalPath)))
	r.Handle(prefix+"/*", files)
	if prefix != "" {
		r.Handle(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently))
	}
	return r, nil
}
